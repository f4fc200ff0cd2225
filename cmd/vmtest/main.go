// vmtest runs the translator against a corpus of .vm files and compares
// the generated assembly with checked-in golden .asm files.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

type FileTestResult struct {
	File    string `json:"file"`
	Status  string `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string `json:"message,omitempty"`
	Diff    string `json:"diff,omitempty"`
	Hash    string `json:"hash,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

var (
	translator     = flag.String("translator", "./vmt", "Path to the translator binary to test.")
	translatorArgs = flag.String("translator-args", "", "Arguments for the translator (space-separated).")
	testFiles      = flag.String("test-files", "testdata/*.vm", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	generateGolden = flag.String("generate-golden", "", "Generate the golden .asm file for a given source file.")
	outputJSON     = flag.String("output", ".vmtest_results.json", "Output file for the JSON test report.")
	timeout        = flag.Duration("timeout", 5*time.Second, "Timeout for each translator run.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	tempDir, err := os.MkdirTemp("", "vmtest-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to create temp directory: %v\n", cRed, cNone, err)
	}
	defer os.RemoveAll(tempDir)

	if *generateGolden != "" {
		handleGenerateGolden(*generateGolden, tempDir)
		return
	}

	handleRunTestSuite(tempDir)
}

func goldenPath(sourceFile string) string {
	return strings.TrimSuffix(sourceFile, ".vm") + ".golden.asm"
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

func translate(sourceFile, tempDir string) (string, error) {
	outFile := filepath.Join(tempDir, filepath.Base(strings.TrimSuffix(sourceFile, ".vm"))+".asm")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	args := strings.Fields(*translatorArgs)
	args = append(args, "-o", outFile, sourceFile)
	cmd := exec.CommandContext(ctx, *translator, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("translator failed: %w\nOutput:\n%s", err, string(output))
	}

	asm, err := os.ReadFile(outFile)
	if err != nil {
		return "", fmt.Errorf("translator produced no output: %w", err)
	}
	return string(asm), nil
}

func handleGenerateGolden(sourceFile, tempDir string) {
	log.Printf("Generating golden file for %s...\n", sourceFile)

	asm, err := translate(sourceFile, tempDir)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Could not generate golden file for %s: %v\n", cRed, cNone, sourceFile, err)
	}

	golden := goldenPath(sourceFile)
	if err := os.WriteFile(golden, []byte(asm), 0644); err != nil {
		log.Fatalf("%s[ERROR]%s Failed to write golden file %s: %v\n", cRed, cNone, golden, err)
	}
	log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, golden)
}

func testFile(file, tempDir string) *FileTestResult {
	hash, err := hashFile(file)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to hash source file: %v", err)}
	}

	golden := goldenPath(file)
	want, err := os.ReadFile(golden)
	if err != nil {
		return &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("No golden file at %s", golden), Hash: hash}
	}

	got, err := translate(file, tempDir)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error(), Hash: hash}
	}

	if diff := cmp.Diff(string(want), got); diff != "" {
		return &FileTestResult{File: file, Status: "FAIL", Message: "Output differs from golden file", Diff: diff, Hash: hash}
	}
	return &FileTestResult{File: file, Status: "PASS", Hash: hash}
}

func handleRunTestSuite(tempDir string) {
	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skipList[f] = true
	}

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				resultsChan <- testFile(file, tempDir)
			}
		}()
	}

	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		tasks <- file
	}
	close(tasks)
	wg.Wait()
	close(resultsChan)

	results := make(TestSuiteResults)
	for res := range resultsChan {
		results[res.File] = res
	}
	report(results)
}

func report(results TestSuiteResults) {
	files := make([]string, 0, len(results))
	for file := range results {
		files = append(files, file)
	}
	sort.Strings(files)

	counts := make(map[string]int)
	for _, file := range files {
		res := results[file]
		counts[res.Status]++
		color := cGreen
		switch res.Status {
		case "FAIL", "ERROR":
			color = cRed
		case "SKIP":
			color = cYellow
		}
		log.Printf("%s[%s]%s %s %s\n", color, res.Status, cNone, file, res.Message)
		if *verbose && res.Diff != "" {
			log.Println(res.Diff)
		}
	}

	log.Printf("\n%s%d passed, %d failed, %d errors, %d skipped%s\n",
		cBold, counts["PASS"], counts["FAIL"], counts["ERROR"], counts["SKIP"], cNone)

	if jsonData, err := json.MarshalIndent(results, "", "  "); err == nil {
		if err := os.WriteFile(*outputJSON, jsonData, 0644); err != nil {
			log.Printf("%s[WARN]%s Could not write report %s: %v\n", cYellow, cNone, *outputJSON, err)
		}
	}

	if counts["FAIL"] > 0 || counts["ERROR"] > 0 {
		os.Exit(1)
	}
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var files []string
	for _, pattern := range strings.Fields(patterns) {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}
