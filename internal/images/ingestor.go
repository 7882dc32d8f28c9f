// Package images validates uploaded image blobs and persists them to a
// local content directory under generated, collision-resistant names.
package images

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/atinyakov/lotmarket/internal/common"
)

// Upload is an in-memory uploaded file paired with the filename the
// client declared for it.
type Upload struct {
	Name string
	Data []byte
}

// allowedExts is the allow-list of declared filename extensions.
var allowedExts = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// sniffedExts maps recognized sniffed content types to the canonical
// extension used for the stored blob.
var sniffedExts = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

// Ingestor validates uploads and writes them to the content directory.
// The reference it returns is refPrefix + "/" + generated name, which
// the serving layer resolves without knowing storage internals.
type Ingestor struct {
	dir    string
	prefix string
}

// New creates the content directory if needed and returns an Ingestor
// serving references under refPrefix.
func New(dir, refPrefix string) (*Ingestor, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating content dir %s: %w", dir, err)
	}
	return &Ingestor{dir: dir, prefix: strings.TrimRight(refPrefix, "/")}, nil
}

// Stage validates a single upload and persists it. The declared
// filename's extension must be allow-listed and the blob's leading
// bytes must carry a recognized image signature; both checks must pass,
// since an extension is spoofable and a signature alone does not
// constrain the format set. The stored name is generated, never the
// caller's, so unrelated uploads cannot overwrite each other.
func (ing *Ingestor) Stage(up Upload) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(up.Name), "."))
	if !allowedExts[ext] {
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedExtension, up.Name)
	}
	sniff := up.Data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	canonical, ok := sniffedExts[http.DetectContentType(sniff)]
	if !ok {
		return "", fmt.Errorf("%w: %q", common.ErrContentMismatch, up.Name)
	}
	name := uuid.NewString() + canonical
	if err := os.WriteFile(filepath.Join(ing.dir, name), up.Data, 0o640); err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}
	return ing.prefix + "/" + name, nil
}

// StageAll stages every upload or none of them: if any blob fails
// validation or writing, the blobs already staged in this batch are
// removed before the error is returned, so a rejected create never
// leaves stray files behind.
func (ing *Ingestor) StageAll(uploads []Upload) ([]string, error) {
	refs := make([]string, 0, len(uploads))
	for _, up := range uploads {
		ref, err := ing.Stage(up)
		if err != nil {
			ing.Discard(refs)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Discard removes previously staged blobs, for callers whose record
// construction aborted after staging. Refs that do not resolve to a
// stored blob are ignored.
func (ing *Ingestor) Discard(refs []string) {
	for _, ref := range refs {
		name := path.Base(ref)
		if name == "." || name == "/" {
			continue
		}
		_ = os.Remove(filepath.Join(ing.dir, name))
	}
}
