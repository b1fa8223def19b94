package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsonparser "github.com/knadh/koanf/parsers/json"
	"github.com/mitchellh/copystructure"
	"github.com/tailscale/hujson"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrTypeMismatch = errors.New("document type mismatch")
	ErrWrongType    = errors.New("wrong value type")
	ErrSyntax       = errors.New("invalid document syntax")
)

const (
	// AnyDTI matches every document type.
	AnyDTI = "/*:*.*"

	// UnknownDTI is stored by Save for documents without a type.
	UnknownDTI = "unknown:1"

	KeyDTI = "sDTI"
	KeyID  = "sId"

	saveIndent = "    "
)

// Document is a parsed configuration document.
type Document = map[string]any

type LoadOptions struct {
	// DTI the document type has to match. Defaults to AnyDTI.
	DTI string

	// KeepVars disables the replacement of "${name}" references.
	KeepVars bool

	// Vars are added to the path variables, replacing those of the same name.
	Vars map[string]string
}

// Loader loads documents and caches the parsed files by absolute path.
// It is safe for concurrent use.
type Loader struct {
	mu    sync.Mutex
	cache map[string]Document

	log *zap.Logger
}

func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}

	return &Loader{
		cache: make(map[string]Document),
		log:   log.Named("document"),
	}
}

// Load reads the document at path, checks its type and replaces path
// variables in its values. A missing "sId" element defaults to the file
// base name. The returned document is owned by the caller.
func (l *Loader) Load(path string, opts LoadOptions) (Document, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	raw, err := l.read(resolved)
	if err != nil {
		return nil, err
	}

	target := opts.DTI
	if target == "" {
		target = AnyDTI
	}

	if _, err := AssertType(raw, target); err != nil {
		return nil, fmt.Errorf("invalid configuration file %q: %w", filepath.ToSlash(resolved), err)
	}

	copied, err := copystructure.Copy(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to copy document: %w", err)
	}
	doc := copied.(Document)

	if _, ok := doc[KeyID]; !ok {
		doc[KeyID] = "${filebasename}"
	}

	if opts.KeepVars {
		return doc, nil
	}

	vars, err := PathVars(resolved)
	if err != nil {
		return nil, err
	}
	for name, value := range opts.Vars {
		vars[name] = value
	}

	return ReplaceVars(doc, vars).(Document), nil
}

// Reset drops all cached documents.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cache = make(map[string]Document)
}

// Cached reports the number of cached documents.
func (l *Loader) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.cache)
}

func (l *Loader) read(path string) (Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if doc, ok := l.cache[abs]; ok {
		l.log.Debug("document loaded from cache", zap.String("path", abs))
		return doc, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing JSON file %s: %w", filepath.ToSlash(abs), err)
	}

	l.log.Debug("document loaded", zap.String("path", abs))
	l.cache[abs] = doc

	return doc, nil
}

// Parse decodes a JSON document. Comments and trailing commas are allowed.
func Parse(data []byte) (Document, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	doc, err := jsonparser.Parser().Unmarshal(std)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	return doc, nil
}

// Save writes doc as indented JSON to path, adding a ".json" extension if
// path has none. The "sDTI" element is set to dti if given, otherwise
// kept, or set to UnknownDTI if missing. doc itself is not modified.
func Save(path string, doc Document, dti string) error {
	out := make(Document, len(doc)+1)
	for key, value := range doc {
		out[key] = value
	}

	if dti != "" {
		out[KeyDTI] = dti
	} else if current, _ := out[KeyDTI].(string); current == "" {
		out[KeyDTI] = UnknownDTI
	}

	data, err := jsonparser.Parser().Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", saveIndent); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	buf.WriteByte('\n')

	return os.WriteFile(WritePath(path, ".json"), buf.Bytes(), 0o644)
}
