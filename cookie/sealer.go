package cookie

import (
	"bytes"
	"compress/gzip"
	"crypto/cipher"
	"crypto/hmac"
	"encoding/base64"
	"encoding/json"

	"github.com/minio/highwayhash"
	"github.com/pkg/errors"
)

// Length of the MAC placed in front of the compressed payload.
const macSize = 8

// Seals values so they can be handed to a client in a cookie. The value is
// JSON encoded, gzipped, prefixed with a HighwayHash-64 MAC, zero padded to
// the cipher's block size, encrypted block by block and finally base64
// encoded.
type Sealer struct {
	// Returns a list of cipher.Block object that should be used for
	// processing cookies. Cookies will be opened with all the keys
	// in order to find one that is valid and will be sealed with the
	// first in the list. This allows rotation of keys without disruption.
	Keys func() ([]cipher.Block, error)

	// The 32 byte HighwayHash key used for the MAC.
	HashKey []byte
}

// Computes the MAC of source into dest.
func (s *Sealer) mac(dest []byte, source []byte) error {
	h, err := highwayhash.New64(s.HashKey)
	if err != nil {
		return errors.Wrap(err, "invalid cookie hash key")
	}
	h.Write(source)
	copy(dest, h.Sum(nil))
	return nil
}

// Decodes the given sealed string into v. If the value was not sealed with
// one of the keys, or has been altered, ErrInvalid is returned.
func (s *Sealer) Open(sealed string, v interface{}) error {
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return errors.Wrap(ErrInvalid, "invalid base64 encoded value")
	}
	keys, err := s.Keys()
	if err != nil {
		return err
	}
	sum := [macSize]byte{}
	for _, candidate := range keys {
		// If the raw data is not perfectly aligned with the block size
		// then this cipher is clearly not compatible.
		bs := candidate.BlockSize()
		if len(raw) < macSize || len(raw)%bs != 0 {
			continue
		}

		// Decrypting in place would destroy the data needed for the
		// next candidate.
		buffer := make([]byte, len(raw))
		for i := 0; i < len(buffer); i += bs {
			candidate.Decrypt(buffer[i:i+bs], raw[i:i+bs])
		}

		if err := s.mac(sum[:], buffer[macSize:]); err != nil {
			return err
		} else if !hmac.Equal(buffer[:macSize], sum[:]) {
			continue
		}

		unzipper, err := gzip.NewReader(bytes.NewReader(buffer[macSize:]))
		if err != nil {
			continue
		}
		unzipper.Multistream(false)
		if err := json.NewDecoder(unzipper).Decode(v); err != nil {
			continue
		}
		return nil
	}
	return ErrInvalid
}

// Encodes v into a sealed string using the first key.
func (s *Sealer) Seal(v interface{}) (string, error) {
	out := bytes.Buffer{}
	out.Grow(4096)

	// Placeholder for the MAC which can only be computed once the rest of
	// the data is in place.
	out.Write(make([]byte, macSize))
	zipper := gzip.NewWriter(&out)
	if err := json.NewEncoder(zipper).Encode(v); err != nil {
		return "", errors.Wrap(err, "encoding cookie value")
	} else if err = zipper.Close(); err != nil {
		return "", errors.Wrap(err, "compressing cookie value")
	}

	keys, err := s.Keys()
	if err != nil {
		return "", err
	} else if len(keys) == 0 {
		return "", errors.New("no cookie keys configured")
	}
	block := keys[0]
	bs := block.BlockSize()
	if add := bs - (out.Len() % bs); add < bs {
		out.Write(make([]byte, add))
	}
	raw := out.Bytes()
	if err := s.mac(raw[:macSize], raw[macSize:]); err != nil {
		return "", err
	}
	for i := 0; i < len(raw); i += bs {
		segment := raw[i : i+bs]
		block.Encrypt(segment, segment)
	}
	return base64.RawStdEncoding.EncodeToString(raw), nil
}

// Seals v and stores it as the cookie named key.
func (j *Jar) SetSealed(s *Sealer, key string, v interface{}, opts *Options) error {
	sealed, err := s.Seal(v)
	if err != nil {
		return err
	}
	j.Set(key, sealed, opts)
	return nil
}

// Opens the sealed cookie named key into v.
func (j *Jar) GetSealed(s *Sealer, key string, v interface{}) error {
	sealed, err := j.Get(key)
	if err != nil {
		return err
	}
	return s.Open(sealed, v)
}
