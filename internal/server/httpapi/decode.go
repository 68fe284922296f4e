package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/timex"
	"github.com/go-chi/chi/v5"
)

const maxBodySize = 1 << 20

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errBadID
	}
	return id, nil
}

// pathUsername returns the decoded {username} segment. chi matches on
// URL.RawPath when the request carried escapes such as %2F, and then hands
// back the segment still escaped.
func pathUsername(r *http.Request) (string, error) {
	name := chi.URLParam(r, "username")
	if r.URL.RawPath == "" {
		return name, nil
	}
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return decoded, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// decodeField reads a body that is either an object carrying field or the
// bare JSON value itself, and returns the raw value.
func decodeField(w http.ResponseWriter, r *http.Request, field string) (json.RawMessage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", errBadRequest)
	}

	if raw[0] != '{' {
		return raw, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	v, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", errBadRequest, field)
	}
	return v, nil
}

func decodeUsername(w http.ResponseWriter, r *http.Request) (string, error) {
	raw, err := decodeField(w, r, "username")
	if err != nil {
		return "", err
	}

	var username string
	if err := json.Unmarshal(raw, &username); err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if username == "" {
		return "", errNoUsername
	}
	return username, nil
}

// decodeBirthday returns nil for a JSON null, which clears the birthday.
func decodeBirthday(w http.ResponseWriter, r *http.Request) (*timex.Date, error) {
	raw, err := decodeField(w, r, "birthday")
	if err != nil {
		return nil, err
	}
	if bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var d timex.Date
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidDate, err)
	}
	return &d, nil
}
