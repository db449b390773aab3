package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitStatus contains git integration status for the database files
type GitStatus struct {
	IsRepo    bool
	Tracked   []string // Files committed to git (bad, they hold key material)
	Unignored []string // Files not covered by .gitignore (warning)
	Ignored   []string // Files in .gitignore (good)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckFiles checks git status of the database and its archive.
// Paths are checked relative to the directory of the first file.
func CheckFiles(paths ...string) (*GitStatus, error) {
	status := &GitStatus{}
	if len(paths) == 0 {
		return status, nil
	}

	workDir := filepath.Dir(paths[0])
	if !IsGitRepo(workDir) {
		return status, nil
	}
	status.IsRepo = true

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		if IsTracked(workDir, abs) {
			status.Tracked = append(status.Tracked, path)
		}
		if IsIgnored(workDir, abs) {
			status.Ignored = append(status.Ignored, path)
		} else {
			status.Unignored = append(status.Unignored, path)
		}
	}

	return status, nil
}

// FormatGitStatus formats git status for display
func FormatGitStatus(status *GitStatus) string {
	if status == nil || !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	// Committed key material is the critical case
	for _, file := range status.Tracked {
		result.WriteString(fmt.Sprintf("   error: %s is tracked by git (run: git rm --cached %s)\n", file, file))
	}

	trackedSet := make(map[string]bool, len(status.Tracked))
	for _, f := range status.Tracked {
		trackedSet[f] = true
	}
	for _, file := range status.Unignored {
		if !trackedSet[file] {
			result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore (add to .gitignore)\n", file))
		}
	}

	if len(status.Tracked) == 0 && len(status.Unignored) == 0 {
		result.WriteString(fmt.Sprintf("   ok: %d file(s) in .gitignore\n", len(status.Ignored)))
	}

	return result.String()
}
