// Command shadow_compare replays read-only requests against the legacy LMS and
// this API side by side and reports response differences. Used during cutover
// to verify window resolution and terms output match the legacy behavior.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type targetsFile struct {
	Targets    []target `json:"targets"`
	IgnoreKeys []string `json:"ignore_keys"`
}

type result struct {
	target       target
	goStatus     int
	legacyStatus int
	statusMatch  bool
	bodyMatch    bool
	goDuration   time.Duration
	legacyDur    time.Duration
	err          error
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5000", "Legacy LMS base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	cfg, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	ignore := make(map[string]struct{}, len(cfg.IgnoreKeys))
	for _, k := range cfg.IgnoreKeys {
		ignore[k] = struct{}{}
	}

	var results []result
	breaking := 0
	for _, tgt := range cfg.Targets {
		res := compare(client, goBase, legacyBase, tgt, ignore)
		if tgt.Critical && (res.err != nil || !res.statusMatch || !res.bodyMatch) {
			breaking++
		}
		results = append(results, res)
	}

	report(results)
	fmt.Printf("Breaking diffs: %d of %d targets\n", breaking, len(results))
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) (*targetsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg targetsFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return &cfg, nil
}

func compare(client *http.Client, goBase, legacyBase string, tgt target, ignore map[string]struct{}) result {
	res := result{target: tgt}

	goBody, goStatus, goDur, err := fetch(client, goBase, tgt)
	if err != nil {
		res.err = fmt.Errorf("go request failed: %w", err)
		return res
	}
	legacyBody, legacyStatus, legacyDur, err := fetch(client, legacyBase, tgt)
	if err != nil {
		res.err = fmt.Errorf("legacy request failed: %w", err)
		return res
	}

	res.goStatus = goStatus
	res.legacyStatus = legacyStatus
	res.goDuration = goDur
	res.legacyDur = legacyDur
	res.statusMatch = goStatus == legacyStatus
	res.bodyMatch = bodiesEqual(goBody, legacyBody, ignore)
	return res
}

func fetch(client *http.Client, base string, tgt target) ([]byte, int, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(context.Background(), method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, 0, err
	}
	return body, resp.StatusCode, time.Since(start), nil
}

// bodiesEqual compares responses byte-wise first, then as normalized JSON so
// key ordering and int/float encoding differences between the two runtimes do
// not count as diffs. Keys in ignore (timestamps, cache meta) are stripped
// from both documents before comparing.
func bodiesEqual(a, b []byte, ignore map[string]struct{}) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj, ignore)
	normalize(&bj, ignore)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}, ignore map[string]struct{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			if _, skip := ignore[k]; skip {
				delete(val, k)
				continue
			}
			normalize(&v2, ignore)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2, ignore)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func report(results []result) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		verdict := "OK"
		if res.err != nil {
			verdict = "ERROR"
		} else if !res.statusMatch || !res.bodyMatch {
			verdict = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", verdict, res.target.Method, res.target.Path)
		if res.err != nil {
			fmt.Printf("  error: %v\n", res.err)
			continue
		}
		fmt.Printf("  go: %d (%s) | legacy: %d (%s)\n", res.goStatus, res.goDuration, res.legacyStatus, res.legacyDur)
		fmt.Printf("  status match: %t | body match: %t | critical: %t\n", res.statusMatch, res.bodyMatch, res.target.Critical)
	}
}
