package secretloader

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

// A Loader that will fetch raw bytes from an AWS Secrets Manager secret.
type secretsManagerLoader struct {
	expiry

	// sourceURL is just a string for URL() to return.
	sourceURL string

	// The name of the profile parsed out of the url.
	profileName string

	// The AWS session fetcher that is used to fetch profiles for use
	// with this loader.
	profiles Profiles

	// The name of the secret to fetch.
	secret string
}

// Fetch the raw data from the secret.
func (s *secretsManagerLoader) Fetch(ctx context.Context) ([]byte, error) {
	ses := s.profiles.GetSession(s.profileName)
	if ses == nil {
		return nil, fmt.Errorf(
			"AWS profile named %s does not exist",
			s.profileName)
	}
	gsvi := secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secret),
	}
	gsvo, err := secretsmanager.New(ses).GetSecretValueWithContext(ctx, &gsvi)
	if err != nil {
		return nil, fmt.Errorf(
			"error fetching '%s': %s",
			s.sourceURL,
			err.Error())
	}
	switch {
	case gsvo.SecretBinary != nil:
		s.touch()
		return gsvo.SecretBinary, nil
	case gsvo.SecretString != nil:
		s.touch()
		return []byte(*gsvo.SecretString), nil
	default:
		return nil, fmt.Errorf("no content found for '%s'", s.sourceURL)
	}
}

// Returns the URL used to generate this Loader.
func (s *secretsManagerLoader) URL(ctx context.Context) string {
	return s.sourceURL
}
