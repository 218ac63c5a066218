package validator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Files and packages a Universal Editor project is expected to carry.
var (
	BaseConfigFiles     = []string{"page.json", "text.json", "image.json", "section.json"}
	TemplateConfigFiles = []string{"component-definition.json", "component-models.json", "component-filters.json"}
	BuildScripts        = []string{"build:json", "build:json:models", "build:json:definitions", "build:json:filters"}
	RequiredDeps        = []string{"merge-json-cli", "npm-run-all", "husky"}
)

// SetupChecks records the outcome of every individual setup check.
type SetupChecks struct {
	PackageJSON     bool            `json:"packageJson"`
	UEFolder        bool            `json:"ueFolder"`
	UEModelsFolder  bool            `json:"ueModelsFolder"`
	UEBlocksFolder  bool            `json:"ueBlocksFolder"`
	UEScriptsFolder bool            `json:"ueScriptsFolder"`
	BaseConfigs     map[string]bool `json:"baseConfigs"`
	TemplateConfigs map[string]bool `json:"templateConfigs"`
	RootConfigs     map[string]bool `json:"rootConfigs"`
	UEJs            bool            `json:"ueJs"`
	UEUtilsJs       bool            `json:"ueUtilsJs"`
	BuildScripts    map[string]bool `json:"buildScripts,omitempty"`
	Dependencies    map[string]bool `json:"dependencies,omitempty"`
	HuskyFolder     bool            `json:"huskyFolder"`
	PreCommitHook   *bool           `json:"preCommitHook,omitempty"`
}

// SetupResult is the outcome of ValidateSetup.
type SetupResult struct {
	Valid    bool        `json:"valid"`
	Errors   []string    `json:"errors"`
	Warnings []string    `json:"warnings"`
	Checks   SetupChecks `json:"checks"`
}

type packageJSON struct {
	Scripts         map[string]json.RawMessage `json:"scripts"`
	Dependencies    map[string]any             `json:"dependencies"`
	DevDependencies map[string]any             `json:"devDependencies"`
}

// ValidateSetup inspects a project directory for the folders, generated
// configs, editor scripts, npm scripts, dependencies and git hooks the
// Universal Editor build relies on.
func ValidateSetup(projectPath string) SetupResult {
	r := SetupResult{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
		Checks: SetupChecks{
			BaseConfigs:     map[string]bool{},
			TemplateConfigs: map[string]bool{},
			RootConfigs:     map[string]bool{},
		},
	}
	fail := func(msg string) {
		r.Errors = append(r.Errors, msg)
		r.Valid = false
	}
	warn := func(msg string) { r.Warnings = append(r.Warnings, msg) }

	packagePath := filepath.Join(projectPath, "package.json")
	r.Checks.PackageJSON = fileExists(packagePath)
	if !r.Checks.PackageJSON {
		fail("package.json not found")
	}

	uePath := filepath.Join(projectPath, "ue")
	modelsPath := filepath.Join(uePath, "models")
	scriptsPath := filepath.Join(uePath, "scripts")

	if r.Checks.UEFolder = dirExists(uePath); !r.Checks.UEFolder {
		fail("ue/ directory not found")
	}
	if r.Checks.UEModelsFolder = dirExists(modelsPath); !r.Checks.UEModelsFolder {
		fail("ue/models/ directory not found")
	}
	if r.Checks.UEBlocksFolder = dirExists(filepath.Join(modelsPath, "blocks")); !r.Checks.UEBlocksFolder {
		warn("ue/models/blocks/ directory not found - no blocks instrumented yet")
	}
	if r.Checks.UEScriptsFolder = dirExists(scriptsPath); !r.Checks.UEScriptsFolder {
		fail("ue/scripts/ directory not found")
	}

	for _, name := range BaseConfigFiles {
		ok := fileExists(filepath.Join(modelsPath, name))
		r.Checks.BaseConfigs[name] = ok
		if !ok {
			fail(fmt.Sprintf("Base config %s not found", name))
		}
	}
	for _, name := range TemplateConfigFiles {
		ok := fileExists(filepath.Join(modelsPath, name))
		r.Checks.TemplateConfigs[name] = ok
		if !ok {
			fail(fmt.Sprintf("Template config %s not found in ue/models/", name))
		}
	}
	for _, name := range TemplateConfigFiles {
		ok := fileExists(filepath.Join(projectPath, name))
		r.Checks.RootConfigs[name] = ok
		if !ok {
			warn(fmt.Sprintf("Consolidated config %s not found in root - run build:json", name))
		}
	}

	if r.Checks.UEJs = fileExists(filepath.Join(scriptsPath, "ue.js")); !r.Checks.UEJs {
		fail("ue/scripts/ue.js not found")
	}
	if r.Checks.UEUtilsJs = fileExists(filepath.Join(scriptsPath, "ue-utils.js")); !r.Checks.UEUtilsJs {
		fail("ue/scripts/ue-utils.js not found")
	}

	if r.Checks.PackageJSON {
		pkg, err := readPackageJSON(packagePath)
		if err != nil {
			fail(fmt.Sprintf("Validation error: %v", err))
			return r
		}

		r.Checks.BuildScripts = map[string]bool{}
		for _, script := range BuildScripts {
			_, ok := pkg.Scripts[script]
			r.Checks.BuildScripts[script] = ok
			if !ok {
				warn(fmt.Sprintf("Build script %q not found in package.json", script))
			}
		}

		r.Checks.Dependencies = map[string]bool{}
		for _, dep := range RequiredDeps {
			ok := truthy(pkg.Dependencies[dep]) || truthy(pkg.DevDependencies[dep])
			r.Checks.Dependencies[dep] = ok
			if !ok {
				fail(fmt.Sprintf("Required dependency %q not found in package.json", dep))
			}
		}
	}

	huskyPath := filepath.Join(projectPath, ".husky")
	if r.Checks.HuskyFolder = dirExists(huskyPath); !r.Checks.HuskyFolder {
		warn(".husky/ directory not found - git hooks not set up")
	} else {
		ok := fileExists(filepath.Join(huskyPath, "pre-commit"))
		r.Checks.PreCommitHook = &ok
		if !ok {
			warn("Pre-commit hook not found - automatic build on commit not enabled")
		}
	}

	return r
}

func readPackageJSON(path string) (*packageJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read package.json: %w", err)
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	return &pkg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
