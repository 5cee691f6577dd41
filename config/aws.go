package config

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
)

// An AWS profile that secret URLs (sm://profile/secret) can refer to by
// name.
type AWS struct {
	KeyID           *string `toml:"key_id"`
	Region          *string `toml:"region"`
	SecretKey       *string `toml:"secret_key"`
	AssumeRoleARN   *string `toml:"assume_role_arn"`
	Profile         *string `toml:"profile"`
	FromEnvironment *bool   `toml:"from_environment"`
	FromEC2Role     *bool   `toml:"from_ec2_role"`

	// The session built from the settings above once validation passes.
	session *session.Session `toml:"-"`
}

// Returns the session created during validation. This is nil if the
// profile failed validation.
func (a *AWS) GetSession() *session.Session {
	return a.session
}

// Validate the contents of the AWS object and, if nothing is wrong, build
// its session.
func (a *AWS) validate(name string) []string {
	errors := a.validateFields(name)
	if errors != nil {
		return errors
	}
	sess, err := a.newSession()
	if err != nil {
		return []string{fmt.Sprintf(
			"aws.%s: Error initializing the AWS session: %s",
			name,
			err.Error())}
	}
	a.session = sess
	return nil
}

func (a *AWS) validateFields(name string) []string {
	var errors []string
	if (a.KeyID == nil) != (a.SecretKey == nil) {
		errors = append(errors, fmt.Sprintf(
			"aws.%s.key_id and aws.%s.secret_key must be used together.",
			name,
			name,
		))
	}
	empty := []struct {
		field string
		value *string
	}{
		{"key_id", a.KeyID},
		{"secret_key", a.SecretKey},
		{"region", a.Region},
		{"profile", a.Profile},
	}
	for _, e := range empty {
		if e.value != nil && *e.value == "" {
			errors = append(errors, fmt.Sprintf(
				"aws.%s.%s can not be an empty string.",
				name,
				e.field,
			))
		}
	}
	if a.AssumeRoleARN != nil {
		if *a.AssumeRoleARN == "" {
			errors = append(errors, fmt.Sprintf(
				"aws.%s.assume_role_arn can not be an empty string.",
				name,
			))
		} else if parsed, err := arn.Parse(*a.AssumeRoleARN); err != nil {
			errors = append(errors, fmt.Sprintf(
				"aws.%s.assume_role_arn is not a valid arn: %s",
				name,
				err.Error(),
			))
		} else if parsed.Service != "iam" {
			errors = append(errors, fmt.Sprintf(
				"aws.%s.assume_role_arn is not an iam ARN (it is %s instead)",
				name,
				parsed.Service,
			))
		}
	}

	// At most one way of finding credentials may be selected. With none
	// the SDK's default chain is used.
	methods := 0
	if a.KeyID != nil {
		methods++
	}
	if a.FromEnvironment != nil && *a.FromEnvironment {
		methods++
	}
	if a.FromEC2Role != nil && *a.FromEC2Role {
		methods++
	}
	if a.Profile != nil {
		methods++
	}
	if methods > 1 {
		errors = append(errors, fmt.Sprintf(
			"aws.%s: More than one AWS authentication method selected.",
			name,
		))
	}
	return errors
}

func (a *AWS) newSession() (*session.Session, error) {
	opts := session.Options{
		Config: aws.Config{Region: a.Region},
	}
	switch {
	case a.KeyID != nil:
		opts.Config.Credentials = credentials.NewStaticCredentials(
			*a.KeyID,
			*a.SecretKey,
			"",
		)
	case a.FromEnvironment != nil && *a.FromEnvironment:
		opts.Config.Credentials = credentials.NewEnvCredentials()
	case a.Profile != nil:
		opts.Profile = *a.Profile
	case a.FromEC2Role != nil && *a.FromEC2Role:
		base, err := session.NewSession(aws.NewConfig())
		if err != nil {
			return nil, err
		}
		opts.Config.Credentials = ec2rolecreds.NewCredentials(base)
	}
	sess, err := session.NewSessionWithOptions(opts)
	if err != nil {
		return nil, err
	}

	// Assuming a role wraps the session built above in one that uses
	// the STS issued credentials.
	if a.AssumeRoleARN != nil {
		return session.NewSession(&aws.Config{
			Region:      a.Region,
			Credentials: stscreds.NewCredentials(sess, *a.AssumeRoleARN),
		})
	}
	return sess, nil
}
