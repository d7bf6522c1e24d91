package export

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mercator-hq/europa/pkg/dataset"
	"mercator-hq/europa/pkg/dataset/encoding"
	"mercator-hq/europa/pkg/export/destination"
	"mercator-hq/europa/pkg/search"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ErrorKindNone},
		{"timeout", search.NewTimeoutError(time.Second, context.DeadlineExceeded), ErrorKindSearchTimeout},
		{"unavailable", search.NewUnavailableError("sqlite", errors.New("locked")), ErrorKindSearchUnavailable},
		{"invalid query", search.NewInvalidQueryError("bad cursor"), ErrorKindInvalidQuery},
		{"invalid projection", dataset.NewInvalidProjectionError([]string{"a"}, []string{"b"}), ErrorKindInvalidProjection},
		{"schema drift", dataset.NewSchemaDriftError(2, []string{"a"}, nil), ErrorKindSchemaDrift},
		{"unknown format", encoding.NewUnknownFormatError("xml"), ErrorKindInvalidFormat},
		{"destination write", destination.NewWriteError("local", "x.csv", errors.New("enospc")), ErrorKindDestinationWrite},
		{"encode wrapping write", encoding.NewEncodeError(encoding.FormatCSV,
			destination.NewWriteError("local", "x.csv", errors.New("enospc"))), ErrorKindDestinationWrite},
		{"bare encode", encoding.NewEncodeError(encoding.FormatJSON, errors.New("marshal")), ErrorKindDestinationWrite},
		{"wrapped timeout", fmt.Errorf("run: %w", search.NewTimeoutError(time.Second, nil)), ErrorKindSearchTimeout},
		{"context deadline", context.DeadlineExceeded, ErrorKindSearchTimeout},
		{"drift beats encode wrapper", encoding.NewEncodeError(encoding.FormatCSV,
			dataset.NewSchemaDriftError(3, nil, []string{"extra"})), ErrorKindSchemaDrift},
		{"unclassified", errors.New("boom"), ErrorKindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyError(tc.err); got != tc.want {
				t.Errorf("ClassifyError() = %s, want %s", got, tc.want)
			}
		})
	}
}
