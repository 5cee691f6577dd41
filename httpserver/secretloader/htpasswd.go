package secretloader

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	htpasswd "github.com/tg123/go-htpasswd"
)

// Loads an .htpasswd style file from the secret. Each line is
// user:hash[:tag...]; lines starting with # are ignored. A user may appear
// on several lines with different passwords or tags.
type HTPasswd struct {
	// The source for htpasswd data.
	Source Loader

	// Logs problems refreshing the file.
	Logger *slog.Logger

	cache cached[map[string][]htpasswdLine]
}

// Preloads the htpasswd file if configured to do so.
func (h *HTPasswd) PreLoad(ctx context.Context) error {
	if h == nil || h.Source == nil || !h.Source.PreLoad(ctx) {
		return nil
	}
	_, err := h.cache.load(ctx, h.Source, parseHTPasswd)
	return err
}

// Starts the cache refresher.
func (h *HTPasswd) StartRefresher(ctx context.Context) {
	if h == nil {
		return
	}
	startRefresher(ctx, h.Source, h.Logger, "htpasswd", func(ctx context.Context) error {
		_, err := h.cache.load(ctx, h.Source, parseHTPasswd)
		return err
	})
}

// Verifies that a user with with the given password exists in the
// htpasswd map, and that the user has all of the tags provided.
func (h *HTPasswd) Verify(
	ctx context.Context,
	user, pass string,
	tags []string,
) (bool, error) {
	all, err := h.cache.get(ctx, h.Source, parseHTPasswd)
	if err != nil {
		return false, err
	}
	for _, line := range all[user] {
		if line.IsPassword(pass) && line.HasTags(tags) {
			return true, nil
		}
	}
	return false, nil
}

// Parses the raw file into per user lines.
func parseHTPasswd(raw []byte) (map[string][]htpasswdLine, error) {
	lines := bytes.Split(raw, []byte{'\n'})
	users := make(map[string][]htpasswdLine, len(lines))
	for i, line := range lines {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		parts := bytes.Split(line, []byte{':'})
		if len(parts) < 2 || len(parts[0]) == 0 {
			return nil, fmt.Errorf(
				"file is badly formatted at line %d: %s",
				i+1,
				line)
		}
		data := htpasswdLine{
			user: string(parts[0]),
			tags: make(map[string]struct{}, len(parts)),
		}
		for _, part := range parts[2:] {
			tag := string(part)
			if len(tag) == 0 {
				return nil, fmt.Errorf("empty tag at line %d", i+1)
			} else if _, ok := data.tags[tag]; ok {
				return nil, fmt.Errorf("duplicate tag `%s` at line %d", tag, i+1)
			}
			data.tags[tag] = struct{}{}
		}
		if err := data.Parse(i+1, string(parts[1])); err != nil {
			return nil, err
		}
		users[data.user] = append(users[data.user], data)
	}
	return users, nil
}

// Represents a single line in the htpasswd file.
type htpasswdLine struct {
	user string
	pass htpasswd.EncodedPasswd
	tags map[string]struct{}
}

func (h *htpasswdLine) HasTags(tags []string) bool {
	for _, tag := range tags {
		if _, ok := h.tags[tag]; !ok {
			return false
		}
	}
	return true
}

func (h *htpasswdLine) IsPassword(pass string) bool {
	return h.pass.MatchesPassword(pass)
}

// Parses a given password hash into a htpasswd.EncodedPasswd or returns
// an error if the password is not understood.
func (h *htpasswdLine) Parse(line int, hash string) (err error) {
	for _, parser := range htpasswd.DefaultSystems {
		h.pass, err = parser(hash)
		if err != nil {
			return fmt.Errorf(
				"invalid password on line %d: %s",
				line,
				err.Error())
		} else if h.pass != nil {
			return nil
		}
	}
	return fmt.Errorf("unknown password hash on line %d", line)
}
