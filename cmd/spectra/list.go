package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spectra-lang/spectra/document"
)

func newListCommand() *cobra.Command {
	var (
		debug           bool
		asJSON          bool
		listsAsExpected bool
		caseSplitter    string
	)

	cmd := &cobra.Command{
		Use:   "list <path>",
		Short: "Enumerate the tests found under a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			splitterSet := cmd.Flags().Changed("cases-with-splitter")

			type entry struct {
				Name     string `json:"name"`
				Case     string `json:"case"`
				Expected string `json:"expected"`
			}
			var entries []entry

			count, files := 0, 0
			err := document.VisitSpecificationFiles(args[0], func(path string) error {
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				input, err := document.Extract(content, listsAsExpected)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				if asJSON {
					for _, test := range input.Tests {
						expected := ""
						if test.Expected != nil {
							expected = *test.Expected
						}
						entries = append(entries, entry{Name: test.Name, Case: test.Case, Expected: expected})
					}
					count += len(input.Tests)
					files++
					return nil
				}

				if !splitterSet {
					fmt.Printf("--- %s ---\n", path)
				}
				if debug && input.ExpectedRunner != "" {
					fmt.Printf("expected runner: %s\n", input.ExpectedRunner)
				}
				for _, test := range input.Tests {
					switch {
					case debug:
						fmt.Printf("%+v\n", test)
					case splitterSet:
						if count > 0 {
							fmt.Println(caseSplitter)
						}
						fmt.Println(test.Case)
					default:
						fmt.Println(test.Name)
					}
					count++
				}
				files++
				return nil
			})
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.Marshal(entries)
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			} else {
				fmt.Fprintf(os.Stderr, "found %d tests across %d files\n", count, files)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "print the full test records")
	cmd.Flags().BoolVar(&asJSON, "as-json", false, "print output as JSON")
	cmd.Flags().BoolVar(&listsAsExpected, "lists-as-expected", false, "use list blocks as the expected output")
	cmd.Flags().StringVar(&caseSplitter, "cases-with-splitter", "", "print cases separated by the given splitter")
	return cmd
}
