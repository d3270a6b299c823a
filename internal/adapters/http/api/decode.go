package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/nebulon/tierd/internal/domain/ranking"
)

// decodeScores reads a JSON object of handle -> score, keeping the order in
// which handles appear so equal scores rank by submission order. Any string
// is a handle, including the empty one, but each may appear only once. Scores
// must be non-negative integers and at most maxEntries pairs are accepted.
func decodeScores(r io.Reader, maxEntries int) ([]ranking.ScoreEntry, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: body must be a JSON object of handle to score", ErrBadRequest)
	}

	entries := make([]ranking.ScoreEntry, 0)
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		handle, _ := tok.(string)
		if _, dup := seen[handle]; dup {
			return nil, fmt.Errorf("%w: duplicate handle %q", ErrBadRequest, handle)
		}
		if len(entries) == maxEntries {
			return nil, fmt.Errorf("%w: more than %d entries", ErrLimitExceeded, maxEntries)
		}

		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		num, ok := tok.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%w: score for %q must be a non-negative integer", ErrBadRequest, handle)
		}
		score, err := strconv.ParseInt(num.String(), 10, 64)
		if err != nil || score < 0 {
			return nil, fmt.Errorf("%w: score for %q must be a non-negative integer, got %s", ErrBadRequest, handle, num)
		}

		seen[handle] = struct{}{}
		entries = append(entries, ranking.ScoreEntry{Handle: handle, Score: score})
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after object", ErrBadRequest)
	}
	return entries, nil
}
