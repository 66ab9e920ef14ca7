//go:build !gcp

package archive

import (
	"context"
	"fmt"
)

func newGCSStore(_ context.Context, _ Options) (Store, error) {
	return nil, fmt.Errorf("archive: GCS support is not enabled in this build (use -tags gcp)")
}
