package rewrite

import (
	"fmt"
	"os"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("retap.rewrite")

// Engine applies the rewrite to files on disk. It is stateless across files;
// each file is parsed, rewritten and reported independently, so a parse
// failure in one file never blocks the rest of a run.
type Engine struct {
	pattern *MethodMatcher
}

func NewEngine(pattern string) (*Engine, error) {
	m, err := ParseMethodPattern(pattern)
	if err != nil {
		return nil, err
	}
	return &Engine{pattern: m}, nil
}

// Pattern returns the method pattern the engine matches against.
func (e *Engine) Pattern() *MethodMatcher {
	return e.pattern
}

// ScanFile reports the matches in path without producing output.
func (e *Engine) ScanFile(path string) (*FileResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	result, err := RewriteSource(source, path, e.pattern)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	result.Output = source
	result.Changed = false
	return result, nil
}

// RewriteFile rewrites path. With write set the file is updated in place;
// otherwise the rewritten source is only carried in the result.
func (e *Engine) RewriteFile(path string, write bool) (*FileResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	result, err := RewriteSource(source, path, e.pattern)
	if err != nil {
		return nil, fmt.Errorf("rewrite %s: %w", path, err)
	}

	for _, site := range result.Sites {
		if site.Applied {
			log.Debugf("%s:%d:%d: rewrote %s.%s", path, site.Line, site.Column, site.Receiver, e.pattern.Method)
		} else {
			log.Infof("%s:%d:%d: skipped: %s", path, site.Line, site.Column, site.Reason)
		}
	}

	if result.Changed && write {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if err := os.WriteFile(path, result.Output, info.Mode().Perm()); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		log.Infof("%s: updated", path)
	}

	return result, nil
}
