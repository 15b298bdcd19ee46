// Command parity_check compares eligibility reports served by this API
// against the legacy system for a set of students. It is meant to run during
// the migration window to prove the new classifier matches the old one.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

type classification struct {
	SubjectID   int64    `json:"subject_id"`
	Status      string   `json:"status"`
	BlockReason string   `json:"block_reason,omitempty"`
	Reasons     []string `json:"reasons,omitempty"`
}

type report struct {
	StudentID int64                     `json:"student_id"`
	Results   map[string]classification `json:"results"`
	Enabled   []int64                   `json:"enabled"`
	Blocked   []int64                   `json:"blocked"`
	Passed    []int64                   `json:"passed"`
}

type envelope struct {
	Data *report `json:"data"`
}

type comparison struct {
	StudentID int64
	Match     bool
	Diffs     []string
	Err       error
}

func main() {
	var (
		goBase     string
		legacyBase string
		students   string
		token      string
		timeout    time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "Legacy API base URL")
	flag.StringVar(&students, "students", "", "Comma-separated student IDs to compare")
	flag.StringVar(&token, "token", "", "Bearer token used against both APIs")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	ids, err := parseStudents(students)
	if err != nil {
		log.Fatalf("invalid -students: %v", err)
	}
	if len(ids) == 0 {
		log.Fatal("at least one student ID is required, e.g. -students 7,12,90")
	}

	client := &http.Client{Timeout: timeout}
	var mismatches int
	for _, id := range ids {
		comp := compareStudent(client, goBase, legacyBase, token, id)
		printComparison(comp)
		if comp.Err != nil || !comp.Match {
			mismatches++
		}
	}

	fmt.Printf("Compared %d students, %d mismatches\n", len(ids), mismatches)
	if mismatches > 0 {
		os.Exit(1)
	}
}

func parseStudents(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a student ID", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func compareStudent(client *http.Client, goBase, legacyBase, token string, studentID int64) comparison {
	comp := comparison{StudentID: studentID}

	goReport, err := fetchReport(client, goBase, token, studentID)
	if err != nil {
		comp.Err = fmt.Errorf("go api: %w", err)
		return comp
	}
	legacyReport, err := fetchReport(client, legacyBase, token, studentID)
	if err != nil {
		comp.Err = fmt.Errorf("legacy api: %w", err)
		return comp
	}

	comp.Diffs = diffReports(goReport, legacyReport)
	comp.Match = len(comp.Diffs) == 0
	return comp
}

func fetchReport(client *http.Client, base, token string, studentID int64) (*report, error) {
	url := fmt.Sprintf("%s/students/%d/eligibility", strings.TrimRight(base, "/"), studentID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("response has no data payload")
	}
	return env.Data, nil
}

func diffReports(got, want *report) []string {
	var diffs []string
	if !reflect.DeepEqual(got.Enabled, want.Enabled) {
		diffs = append(diffs, fmt.Sprintf("enabled: got %v, legacy %v", got.Enabled, want.Enabled))
	}
	if !reflect.DeepEqual(got.Blocked, want.Blocked) {
		diffs = append(diffs, fmt.Sprintf("blocked: got %v, legacy %v", got.Blocked, want.Blocked))
	}
	if !reflect.DeepEqual(got.Passed, want.Passed) {
		diffs = append(diffs, fmt.Sprintf("passed: got %v, legacy %v", got.Passed, want.Passed))
	}

	for subjectID, legacy := range want.Results {
		mine, ok := got.Results[subjectID]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("subject %s missing from go report", subjectID))
			continue
		}
		if mine.Status != legacy.Status || mine.BlockReason != legacy.BlockReason {
			diffs = append(diffs, fmt.Sprintf("subject %s: got %s/%s, legacy %s/%s",
				subjectID, mine.Status, mine.BlockReason, legacy.Status, legacy.BlockReason))
		}
	}
	return diffs
}

func printComparison(comp comparison) {
	switch {
	case comp.Err != nil:
		fmt.Printf("student %d: ERROR %v\n", comp.StudentID, comp.Err)
	case comp.Match:
		fmt.Printf("student %d: OK\n", comp.StudentID)
	default:
		fmt.Printf("student %d: %d diffs\n", comp.StudentID, len(comp.Diffs))
		for _, d := range comp.Diffs {
			fmt.Printf("  - %s\n", d)
		}
	}
}
