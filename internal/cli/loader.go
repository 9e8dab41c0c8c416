package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/poc/internal/compiler"
)

// StdinPath is the path argument that reads a policy from standard input.
const StdinPath = "-"

// stdinName labels a policy read from standard input.
const stdinName = "<stdin>"

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoPolicies   = "E003" // No policy files found
	ErrCodeLoadFailed   = "E004" // File or CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeInvalidEntry = "E008" // Invalid or duplicate bundle entry

	ErrCodePolicyFailed = "E_POLICY_FAILED" // At least one policy compiled to FAIL
	ErrCodeTestFailed   = "E_TEST_FAILED"   // At least one scenario failed
	ErrCodeStoreFailed  = "E_STORE"         // History database error
)

// LoadResult contains the policies found at a path.
type LoadResult struct {
	Sources   []compiler.PolicySource
	CUEFiles  int // Number of CUE bundle files read
	TextFiles int // Number of plain-text policy files read
}

// LoadError represents an error that occurred during policy loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadPolicies resolves a path argument into named policy sources.
//
//   - "-" reads one policy from stdin.
//   - A .cue file is read as a policy bundle.
//   - Any other file is one plain-text policy.
//   - A directory yields every bundle entry from its .cue files followed by
//     every plain-text file matching an include pattern, in path order.
//
// Policy names must be unique across a directory.
func LoadPolicies(path string, include []string, stdin io.Reader) (*LoadResult, error) {
	if path == StdinPath {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading stdin: %v", err)}
		}
		return &LoadResult{
			Sources:   []compiler.PolicySource{{Name: stdinName, Text: string(data)}},
			TextFiles: 1,
		}, nil
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing path: %v", err)}
	}

	if !info.IsDir() {
		return loadFile(path)
	}
	return loadDir(path, include)
}

func loadFile(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	if filepath.Ext(path) == ".cue" {
		sources, err := loadBundle(cuecontext.New(), path, data)
		if err != nil {
			return nil, err
		}
		if len(sources) == 0 {
			return nil, &LoadError{Code: ErrCodeNoPolicies, Message: fmt.Sprintf("no policies defined in %s", path)}
		}
		return &LoadResult{Sources: sources, CUEFiles: 1}, nil
	}

	return &LoadResult{
		Sources:   []compiler.PolicySource{{Name: filepath.Base(path), Text: string(data)}},
		TextFiles: 1,
	}, nil
}

func loadDir(dir string, include []string) (*LoadResult, error) {
	fsys := os.DirFS(dir)

	cueFiles, err := doublestar.Glob(fsys, "**/*.cue")
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	slices.Sort(cueFiles)

	textFiles, err := FindPolicyFiles(dir, include)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{}
	seen := make(map[string]bool)
	add := func(src compiler.PolicySource, pos token.Pos) error {
		if seen[src.Name] {
			return &LoadError{Code: ErrCodeInvalidEntry, Message: fmt.Sprintf("duplicate policy name %q", src.Name), Pos: pos}
		}
		seen[src.Name] = true
		result.Sources = append(result.Sources, src)
		return nil
	}

	ctx := cuecontext.New()
	for _, rel := range cueFiles {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
		}
		sources, err := loadBundle(ctx, path, data)
		if err != nil {
			return nil, err
		}
		for _, src := range sources {
			if err := add(src, token.NoPos); err != nil {
				return nil, err
			}
		}
		result.CUEFiles++
	}

	for _, rel := range textFiles {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", rel, err)}
		}
		if err := add(compiler.PolicySource{Name: rel, Text: string(data)}, token.NoPos); err != nil {
			return nil, err
		}
		result.TextFiles++
	}

	if len(result.Sources) == 0 {
		return nil, &LoadError{Code: ErrCodeNoPolicies, Message: fmt.Sprintf("no policy files found in %s", dir)}
	}
	return result, nil
}

// FindPolicyFiles returns slash-separated paths relative to dir that match
// any include pattern, sorted and de-duplicated. CUE files never match.
func FindPolicyFiles(dir string, include []string) ([]string, error) {
	fsys := os.DirFS(dir)

	var files []string
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("invalid include pattern %q", pattern)}
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		for _, m := range matches {
			if strings.HasSuffix(m, ".cue") {
				continue
			}
			files = append(files, m)
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

// loadBundle extracts policies from a CUE file shaped as
//
//	policy: <name>: {
//		text:         string
//		description?: string
//	}
//
// Entries are returned in declaration order.
func loadBundle(ctx *cue.Context, path string, data []byte) ([]compiler.PolicySource, error) {
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err), Pos: firstPos(err)}
	}

	policies := value.LookupPath(cue.ParsePath("policy"))
	if !policies.Exists() {
		return nil, nil
	}

	iter, err := policies.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidEntry, Message: fmt.Sprintf("policy must be a struct: %v", err), Pos: policies.Pos()}
	}

	var sources []compiler.PolicySource
	for iter.Next() {
		name := iter.Label()
		entry := iter.Value()

		textVal := entry.LookupPath(cue.ParsePath("text"))
		if !textVal.Exists() {
			return nil, &LoadError{Code: ErrCodeInvalidEntry, Message: fmt.Sprintf("policy.%s: text is required", name), Pos: entry.Pos()}
		}
		text, err := textVal.String()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidEntry, Message: fmt.Sprintf("policy.%s.text: %v", name, err), Pos: textVal.Pos()}
		}
		sources = append(sources, compiler.PolicySource{Name: name, Text: text})
	}
	return sources, nil
}

// firstPos returns the position of the first CUE error, if any.
func firstPos(err error) token.Pos {
	for _, e := range cueerrors.Errors(err) {
		if pos := e.Position(); pos.IsValid() {
			return pos
		}
	}
	return token.NoPos
}
