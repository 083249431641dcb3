package attachment

import (
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

// Decode returns the bytes of a data URI. Content without a "data:" prefix is
// taken to be bare base64.
func Decode(content string) ([]byte, error) {
	payload := strings.TrimSpace(content)
	if strings.HasPrefix(payload, "data:") {
		i := strings.IndexByte(payload, ',')
		if i < 0 {
			return nil, errors.New("attachment: data URI has no payload")
		}
		payload = payload[i+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}

	data, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	if rawErr != nil {
		return nil, errors.Wrap(err, "attachment: decode base64")
	}
	return data, nil
}
