package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInstallCommand() *cobra.Command {
	install := &cobra.Command{
		Use:   "install",
		Short: "Add a host-project test entry that shells out to spectra",
	}
	install.AddCommand(newInstallCargoCommand(), newInstallGoCommand())
	return install
}

func newInstallCargoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "specification-test-in-cargo <markdown> <command>",
		Short: "Append a [[test]] stanza to Cargo.toml and generate its driver",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			markdown, command := args[0], args[1]

			cargoToml, err := os.OpenFile("Cargo.toml", os.O_APPEND|os.O_WRONLY, 0)
			if err != nil {
				return fmt.Errorf("open Cargo.toml: %w", err)
			}
			_, err = fmt.Fprint(cargoToml, "\n[[test]]\nname = \"specification\"\nharness = false\n")
			if closeErr := cargoToml.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return fmt.Errorf("append to Cargo.toml: %w", err)
			}

			if err := os.MkdirAll("tests", 0o755); err != nil {
				return err
			}
			driver := fmt.Sprintf(`use std::process::{Command, ExitCode};
fn main() -> ExitCode {
let output = Command::new("spectra").arg("test").arg(%q).arg(%q).status().unwrap();
if output.code().is_none_or(|item| item == 0) { ExitCode::SUCCESS } else { ExitCode::FAILURE }
}
`, markdown, command)
			return createNew("tests/specification.rs", driver)
		},
	}
}

func newInstallGoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "specification-test-in-go <markdown> <command>",
		Short: "Generate a Go test that runs the specification suite",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			markdown, command := args[0], args[1]

			driver := fmt.Sprintf(`package specification_test

import (
	"os"
	"os/exec"
	"testing"
)

func TestSpecification(t *testing.T) {
	cmd := exec.Command("spectra", "test", %q, %q)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("specification suite failed: %%v", err)
	}
}
`, markdown, command)
			return createNew("specification_test.go", driver)
		},
	}
}

func createNew(path, content string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	_, err = file.WriteString(content)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
