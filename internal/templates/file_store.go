package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akmatori/snowbridge/internal/alerts"
	"github.com/akmatori/snowbridge/internal/ticket"
	"gopkg.in/yaml.v3"
)

// CategoryDirs maps categories onto their directory under the configuration root
var CategoryDirs = map[alerts.Category]string{
	alerts.CategoryDevice:  "devices",
	alerts.CategoryMeeting: "meetings",
}

// configFileNames are tried in order inside each subtype group directory
var configFileNames = []string{"config.json", "config.yaml", "config.yml"}

// FileStore reads templates from <root>/<category>/<group>/config.{json,yaml}.
// Each file maps issue keys to templates. Files are read on every lookup so
// edits take effect without a restart.
type FileStore struct {
	root string
}

// NewFileStore creates a file-backed template store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Root returns the configuration directory
func (s *FileStore) Root() string {
	return s.root
}

// Lookup returns the template for key
func (s *FileStore) Lookup(ctx context.Context, key Key) (*ticket.Template, error) {
	group, err := s.loadGroup(key.Category, key.Group)
	if err != nil {
		return nil, err
	}

	tmpl, ok := group[key.IssueKey]
	if !ok || tmpl == nil {
		return nil, ErrTemplateNotFound
	}
	return tmpl, nil
}

// List returns every template found under the root, sorted by key
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	for category, dir := range CategoryDirs {
		groupDirs, err := os.ReadDir(filepath.Join(s.root, dir))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dir, err)
		}

		for _, gd := range groupDirs {
			if !gd.IsDir() {
				continue
			}
			group := alerts.SubtypeGroup(gd.Name())
			templates, err := s.loadGroup(category, group)
			if errors.Is(err, ErrTemplateNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			for issueKey, tmpl := range templates {
				if tmpl == nil {
					continue
				}
				entries = append(entries, Entry{
					Key:      Key{Category: category, Group: group, IssueKey: issueKey},
					Template: tmpl,
				})
			}
		}
	}

	sortEntries(entries)
	return entries, nil
}

// Put is not supported; edit the files instead
func (s *FileStore) Put(ctx context.Context, key Key, tmpl *ticket.Template) error {
	return ErrReadOnly
}

// Delete is not supported; edit the files instead
func (s *FileStore) Delete(ctx context.Context, key Key) error {
	return ErrReadOnly
}

func (s *FileStore) loadGroup(category alerts.Category, group alerts.SubtypeGroup) (map[string]*ticket.Template, error) {
	dir, ok := CategoryDirs[category]
	if !ok {
		return nil, ErrTemplateNotFound
	}

	for _, name := range configFileNames {
		path := filepath.Join(s.root, dir, string(group), name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return parseGroupFile(path, data)
	}

	log.Printf("FileStore: no configuration file for %s/%s under %s", dir, group, s.root)
	return nil, ErrTemplateNotFound
}

func parseGroupFile(path string, data []byte) (map[string]*ticket.Template, error) {
	templates := make(map[string]*ticket.Template)

	var err error
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &templates)
	} else {
		err = yaml.Unmarshal(data, &templates)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return templates, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.String() < entries[j].Key.String()
	})
}
