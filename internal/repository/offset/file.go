package offset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/ward-monitor/internal/config"
)

// Repository defines persistence operations for the update offset.
type Repository interface {
	Load(ctx context.Context) (int64, error)
	Save(ctx context.Context, offset int64) error
}

// ErrNotFound is returned when the checkpoint file does not exist yet.
var ErrNotFound = errors.New("offset checkpoint not found")

// checkpoint is the on-disk layout.
type checkpoint struct {
	Offset    int64     `yaml:"offset"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// FileRepository persists the offset to a YAML file.
type FileRepository struct {
	// path is the filesystem location of the checkpoint.
	path string
	// now stamps saved checkpoints.
	now func() time.Time
	// mu protects concurrent access to the file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes YAML at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
		now:  time.Now,
	}
}

// Load reads the offset from disk.
func (r *FileRepository) Load(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrNotFound
		}

		return 0, fmt.Errorf("read offset file: %w", err)
	}

	var cp checkpoint
	if err = yaml.Unmarshal(contents, &cp); err != nil {
		return 0, fmt.Errorf("decode offset file: %w", err)
	}

	return cp.Offset, nil
}

// Save writes the offset through a temporary file and a rename, so a crash
// mid-write leaves the previous checkpoint intact.
func (r *FileRepository) Save(_ context.Context, offset int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(&checkpoint{
		Offset:    offset,
		UpdatedAt: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode offset: %w", err)
	}

	tmp := r.path + ".tmp"

	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write offset file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace offset file: %w", err)
	}

	return nil
}
