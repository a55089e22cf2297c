// Command mvpexc is the build-tool entry point: it reads a schema file, assigns
// stable numeric ids through the lockfile, and emits generated Go source. Shaped
// after clawc.go's flag-parsing/os.Exit driver, adapted to a fixed exit-code
// contract instead of clawc's single-failure-mode exit(1).
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mvp-express/the-framework/codegen"
	"github.com/mvp-express/the-framework/ids"
	"github.com/mvp-express/the-framework/schema"
)

// Exit codes.
const (
	exitOK                = 0
	exitValidationError   = 1
	exitLockfileDrift     = 2
	exitIOFailure         = 3
	exitProbingExhaustion = 4
)

func main() {
	var (
		schemaPath   = flag.String("schema", "", "path to the schema YAML file")
		outputDir    = flag.String("out", ".", "directory to write generated Go source into")
		basePackage  = flag.String("package", "", "Go package name for generated source (defaults to the service name with its first letter lowercased)")
		modeFlag     = flag.String("mode", "WRITE", "allocator mode: OFF, CHECK, or WRITE")
		lockfilePath = flag.String("lockfile", "", "path to the ids lockfile (defaults to <schema dir>/.mvpe.ids.lock)")
	)
	flag.Parse()

	if *schemaPath == "" {
		exitf(exitIOFailure, "missing required -schema flag")
	}

	mode, err := parseMode(*modeFlag)
	if err != nil {
		exitf(exitIOFailure, "%s", err)
	}

	lockPath := *lockfilePath
	if lockPath == "" {
		lockPath = filepath.Join(filepath.Dir(*schemaPath), ids.DefaultLockfileName)
	}

	if err := generate(*schemaPath, *outputDir, *basePackage, mode, lockPath); err != nil {
		exitf(exitCodeFor(err), "%s", err)
	}
}

func parseMode(s string) (ids.Mode, error) {
	switch s {
	case "OFF":
		return ids.OFF, nil
	case "CHECK":
		return ids.CHECK, nil
	case "WRITE":
		return ids.WRITE, nil
	default:
		return 0, fmt.Errorf("unrecognized -mode %q, want OFF, CHECK, or WRITE", s)
	}
}

// generate is the build-tool entry point.
func generate(schemaPath, outputDir, basePackage string, mode ids.Mode, lockfilePath string) error {
	s, err := schema.ParseFile(schemaPath)
	if err != nil {
		return &driverError{code: exitValidationError, err: err}
	}

	if issues := schema.Validate(s); len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintln(os.Stderr, issue.String())
		}
		return &driverError{code: exitValidationError, err: fmt.Errorf("%d validation issue(s)", len(issues))}
	}

	lock := ids.NewLock()
	if mode != ids.OFF {
		loaded, err := ids.LoadLock(lockfilePath)
		if err != nil {
			return &driverError{code: exitIOFailure, err: err}
		}
		lock = loaded
	}

	assigned, err := assign(mode, lock, s)
	if err != nil {
		return &driverError{code: exitCodeForIDError(err), err: err}
	}

	if basePackage == "" {
		basePackage = lowerFirst(s.Service.Name)
	}
	assigned.Package = basePackage

	src, err := codegen.Generate(assigned)
	if err != nil {
		return &driverError{code: exitIOFailure, err: err}
	}

	outPath := filepath.Join(outputDir, basePackage+".go")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return &driverError{code: exitIOFailure, err: err}
	}
	if err := os.WriteFile(outPath, src, 0o644); err != nil {
		return &driverError{code: exitIOFailure, err: err}
	}

	if mode == ids.WRITE {
		if err := lock.Save(lockfilePath); err != nil {
			return &driverError{code: exitIOFailure, err: err}
		}
	}

	return nil
}

func assign(mode ids.Mode, lock *ids.Lock, s *schema.Schema) (codegen.Assigned, error) {
	a := ids.NewAllocator(mode, lock)

	svcName, err := a.ResolveServiceAlias(s.Service.Name)
	if err != nil {
		return codegen.Assigned{}, err
	}
	svcID, err := a.AssignService(svcName, s.Service.ID)
	if err != nil {
		return codegen.Assigned{}, err
	}

	methodIDs := make(map[string]int, len(s.Service.Methods))
	for _, m := range s.Service.Methods {
		id, err := a.AssignMethod(svcName, m.Name, m.ID)
		if err != nil {
			return codegen.Assigned{}, err
		}
		methodIDs[m.Name] = id
	}

	messageIDs := make(map[string]int, len(s.Messages))
	for _, m := range s.Messages {
		name, err := a.ResolveMessageAlias(m.Name)
		if err != nil {
			return codegen.Assigned{}, err
		}
		id, err := a.AssignMessage(name, m.ID)
		if err != nil {
			return codegen.Assigned{}, err
		}
		messageIDs[m.Name] = id
	}

	return codegen.Assigned{
		Service:    s.Service,
		Messages:   s.Messages,
		ServiceID:  svcID,
		MethodIDs:  methodIDs,
		MessageIDs: messageIDs,
	}, nil
}

// driverError carries the exit code alongside the underlying error.
type driverError struct {
	code int
	err  error
}

func (d *driverError) Error() string { return d.err.Error() }
func (d *driverError) Unwrap() error { return d.err }

func exitCodeFor(err error) int {
	if d, ok := err.(*driverError); ok {
		return d.code
	}
	return exitIOFailure
}

// exitCodeForIDError maps an ids package failure to an exit code: probing
// exhaustion gets its own code, lockfile drift in CHECK mode gets its own code,
// everything else from the allocator is a validation error.
func exitCodeForIDError(err error) int {
	type typed interface{ Type() string }
	if t, ok := err.(typed); ok {
		switch t.Type() {
		case "ProbeExhausted":
			return exitProbingExhaustion
		case "LockDrift", "MissingInLockCheckMode":
			return exitLockfileDrift
		}
	}
	return exitValidationError
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

func exitf(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
