// Package plan provides types and utilities for loading and validating
// backup plan files. A plan defines multiple backup targets with
// per-target overrides, enabling one invocation to mirror several
// groups or users.
//
// # Plan Format
//
// Plans can be written in YAML or JSON format:
//
//	targets:
//	  - type: groups
//	    login: platform-team
//	    exclude: ["*-draft"]
//	  - type: users
//	    login: alice
//	    dir: ./backups/alice
//	    limit: 5
//	options:
//	  continue_on_error: true
//	  concurrency: 2
//
// Fields left out of a target (host, token, dir, limit) fall back to the
// main configuration.
//
// # Usage
//
// Load a plan file:
//
//	loader := plan.NewLoader()
//	cfg, err := loader.Load("backups.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, target := range cfg.Targets {
//	    // Back up each target
//	}
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - ErrNoTargets: plan has no targets defined
//   - ErrEmptyLogin: target is missing the required login field
//   - ErrBadType: target type is not "groups" or "users"
//   - ErrInvalidFormat: file is not valid YAML/JSON
//   - ErrFileNotFound: plan file does not exist
//   - ErrUnsupportedExt: unsupported file extension
package plan
