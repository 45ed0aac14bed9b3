package transcode

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// maybeOpenFromGoogleStorage opens a local file, unless the path starts with
// gs://, in which case it opens the named Google Storage object with default
// credentials.
func maybeOpenFromGoogleStorage(path string) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, "gs://") {
		f, err := os.Open(path)
		if err != nil {
			return nil, pfx.Err(err)
		}

		return f, nil
	}

	// Detect the bucket and the path to the actual file
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 {
		return nil, pfx.Err(fmt.Errorf("tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts))
	}
	bucketName := pathParts[0]
	pathName := pathParts[1]

	ctx := context.Background()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, pfx.Err(err)
	}

	rdr, err := client.Bucket(bucketName).Object(pathName).NewReader(ctx)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
	}

	return rdr, nil
}
