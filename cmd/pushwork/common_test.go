package main

import (
	"errors"
	"testing"

	"github.com/inkandswitch/pushwork/pkg/docmodel"
	"github.com/inkandswitch/pushwork/pkg/reconcile"
)

func TestParseShareURL(t *testing.T) {
	storePath, id, err := parseShareURL("/var/tmp/store.bolt#abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storePath != "/var/tmp/store.bolt" {
		t.Errorf("store path = %q", storePath)
	}
	if id != docmodel.DocumentID("abc123") {
		t.Errorf("document id = %q", id)
	}
}

func TestParseShareURLRejectsMissingFragment(t *testing.T) {
	if _, _, err := parseShareURL("/var/tmp/store.bolt"); err == nil {
		t.Fatal("expected an error for a url with no document id")
	}
}

func TestParseShareURLRejectsEmptyComponents(t *testing.T) {
	cases := []string{"#abc123", "/var/tmp/store.bolt#", "#"}
	for _, c := range cases {
		if _, _, err := parseShareURL(c); err == nil {
			t.Errorf("expected an error for %q", c)
		}
	}
}

func TestDocContentSizeText(t *testing.T) {
	doc := &docmodel.FileDoc{Type: docmodel.FileTypeText, Text: []rune("héllo")}
	if got := docContentSize(doc); got != len("héllo") {
		t.Errorf("size = %d, want %d", got, len("héllo"))
	}
}

func TestDocContentSizeBinary(t *testing.T) {
	doc := &docmodel.FileDoc{Type: docmodel.FileTypeBinary, Bytes: []byte{1, 2, 3, 4}}
	if got := docContentSize(doc); got != 4 {
		t.Errorf("size = %d, want 4", got)
	}
}

func TestDocContentSizeNil(t *testing.T) {
	if got := docContentSize(nil); got != 0 {
		t.Errorf("size = %d, want 0", got)
	}
}

func TestResultExitCodeSuccess(t *testing.T) {
	result := &reconcile.SyncResult{Success: true}
	if got := resultExitCode(result); got != exitSuccess {
		t.Errorf("exit code = %d, want %d", got, exitSuccess)
	}
}

func TestResultExitCodeInvariantViolationIsUnresolvedConflict(t *testing.T) {
	result := &reconcile.SyncResult{Success: false}
	result.Errors = append(result.Errors, reconcile.SyncError{
		Path: "a.txt", Op: "pull", Kind: reconcile.KindInvariantViolation, Err: errors.New("collision"),
	})
	if got := resultExitCode(result); got != exitUnresolvedConflict {
		t.Errorf("exit code = %d, want %d", got, exitUnresolvedConflict)
	}
}

func TestResultExitCodeFatalNonInvariantIsGeneral(t *testing.T) {
	result := &reconcile.SyncResult{Success: false}
	result.Errors = append(result.Errors, reconcile.SyncError{
		Path: "a.txt", Op: "push", Kind: reconcile.KindStoreConflict, Err: errors.New("boom"),
	})
	if got := resultExitCode(result); got != exitGeneral {
		t.Errorf("exit code = %d, want %d", got, exitGeneral)
	}
}

func TestResultExitCodeRecoverableErrorIsFilesystem(t *testing.T) {
	result := &reconcile.SyncResult{Success: true}
	result.Errors = append(result.Errors, reconcile.SyncError{
		Path: "a.txt", Op: "pull", Kind: reconcile.KindFilesystemPermission, Err: errors.New("denied"),
	})
	if got := resultExitCode(result); got != exitFilesystem {
		t.Errorf("exit code = %d, want %d", got, exitFilesystem)
	}
}

func TestResultExitCodeWarningIsNetwork(t *testing.T) {
	result := &reconcile.SyncResult{Success: true}
	result.Warnings = append(result.Warnings, "barrier timed out")
	if got := resultExitCode(result); got != exitNetwork {
		t.Errorf("exit code = %d, want %d", got, exitNetwork)
	}
}

func TestWithExitCodeNilIsNil(t *testing.T) {
	if withExitCode(exitConfig, nil) != nil {
		t.Fatal("withExitCode(code, nil) should return nil")
	}
}

func TestWithExitCodeUnwraps(t *testing.T) {
	inner := errors.New("bad config")
	wrapped := withExitCode(exitConfig, inner)
	if !errors.Is(wrapped, inner) {
		t.Fatal("withExitCode's result should unwrap to the original error")
	}
}
