package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mdref/internal/asmfile"
)

var packCmd = &cobra.Command{
	Use:   "pack [flags] <image.asm.toml>...",
	Short: "Convert TOML assembly images to the packed binary form",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPack,
}

func init() {
	packCmd.Flags().StringP("output", "o", "", "output file (single input only; default: next to the input)")
}

func runPack(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output != "" && len(args) > 1 {
		return fmt.Errorf("--output needs exactly one input, got %d", len(args))
	}
	for _, in := range args {
		if !strings.HasSuffix(in, asmfile.TOMLExt) {
			return fmt.Errorf("%s: expected a %s file", in, asmfile.TOMLExt)
		}
		img, readErr := asmfile.Read(in)
		if readErr != nil {
			return readErr
		}
		// Build validates the image before it is packed.
		if _, buildErr := img.Build(); buildErr != nil {
			return fmt.Errorf("%s: %w", in, buildErr)
		}
		dst := output
		if dst == "" {
			dst = strings.TrimSuffix(in, asmfile.TOMLExt) + asmfile.PackExt
		}
		if err := asmfile.WritePack(dst, img); err != nil {
			return fmt.Errorf("%s: %w", dst, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "packed %s -> %s\n", in, filepath.ToSlash(dst))
	}
	return nil
}
