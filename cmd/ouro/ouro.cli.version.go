package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"gopkg.in/yaml.v3"
)

// versionInfo describes the running binary
type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Branch    string `json:"branch" yaml:"branch"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
}

// versionsFile is the release pipeline's versions.yaml
type versionsFile struct {
	Project struct {
		Version string `yaml:"version"`
	} `yaml:"project"`
	Git struct {
		Commit string `yaml:"commit"`
		Branch string `yaml:"branch"`
	} `yaml:"git"`
	Build struct {
		Time      string `yaml:"time"`
		GoVersion string `yaml:"go_version"`
	} `yaml:"build"`
}

func runVersion(args []string, stdout, stderr io.Writer) int {
	format, err := parseVersionFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFormat, err)
		return ExitCodeUsageError
	}

	info, _ := debug.ReadBuildInfo()
	v := buildVersionInfo(info)
	v.overlay(findVersionsFile([]string{".", "..", filepath.Join("..", "..")}))

	if format == OutputFormatText {
		fmt.Fprintf(stdout, VersionTextTemplate+FmtNewline, v.Version, v.Commit, v.Branch, v.BuildTime, v.GoVersion)
		return ExitCodeSuccess
	}
	if err := writeStructured(format, v, stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMarshalFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func parseVersionFlags(args []string) (string, error) {
	fs := flag.NewFlagSet(CmdNameVersion, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var format string
	fs.StringVar(&format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&format, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return "", err
	}
	switch format {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return format, nil
	default:
		return "", errors.New(ErrMsgInvalidFormat)
	}
}

// buildVersionInfo reads the module version and VCS stamps linked into
// the binary. info may be nil.
func buildVersionInfo(info *debug.BuildInfo) *versionInfo {
	v := &versionInfo{
		Version:   VersionUnknown,
		Commit:    VersionUnknown,
		Branch:    VersionUnknown,
		BuildTime: VersionUnknown,
		GoVersion: runtime.Version(),
	}
	if info == nil {
		return v
	}

	if info.Main.Version != "" && info.Main.Version != BuildInfoDevelVersion {
		v.Version = info.Main.Version
	}
	if info.GoVersion != "" {
		v.GoVersion = info.GoVersion
	}
	for _, s := range info.Settings {
		switch s.Key {
		case BuildSettingRevision:
			v.Commit = s.Value
		case BuildSettingTime:
			v.BuildTime = s.Value
		case BuildSettingModified:
			v.Modified = s.Value == "true"
		}
	}
	return v
}

// overlay replaces fields with the non-empty values of f
func (v *versionInfo) overlay(f *versionsFile) {
	if f == nil {
		return
	}
	for dst, src := range map[*string]string{
		&v.Version:   f.Project.Version,
		&v.Commit:    f.Git.Commit,
		&v.Branch:    f.Git.Branch,
		&v.BuildTime: f.Build.Time,
		&v.GoVersion: f.Build.GoVersion,
	} {
		if src != "" {
			*dst = src
		}
	}
}

// findVersionsFile returns the first readable versions.yaml in dirs
func findVersionsFile(dirs []string) *versionsFile {
	for _, dir := range dirs {
		data, err := os.ReadFile(filepath.Join(dir, VersionsFileName))
		if err != nil {
			continue
		}
		var f versionsFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			continue
		}
		return &f
	}
	return nil
}
