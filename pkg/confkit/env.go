package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
)

const maxRootDepth = 8

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file the first time it is called. NO_DOTENV=1
// disables loading, ENV_FILE selects an explicit file and DOTENV_OVERLOAD=1
// lets the file override variables already present in the environment.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}
	apply := godotenv.Load
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		apply = godotenv.Overload
	}

	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		_ = apply(envFile)
		return
	}

	found := walkToRoot(func(dir string) {
		candidate := filepath.Join(dir, ".env")
		if fileExists(candidate) {
			_ = apply(candidate)
		}
	})
	if found == "" && fileExists(".env") {
		_ = apply(".env")
	}
}

// walkToRoot visits directories from this source file upward and returns the
// first one that looks like the module root, or "" when none was found.
func walkToRoot(visit func(dir string)) string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	dir := filepath.Dir(file)
	for i := 0; i < maxRootDepth; i++ {
		if visit != nil {
			visit(dir)
		}
		if fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ProjectRoot locates the module root, falling back to the working directory.
func ProjectRoot() (string, error) {
	if root := walkToRoot(nil); root != "" {
		return root, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	return wd, nil
}

// MustProjectPath joins the module root with rel and panics on failure.
func MustProjectPath(rel string) string {
	root, err := ProjectRoot()
	if err != nil {
		panic(err)
	}
	return filepath.Join(root, rel)
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
