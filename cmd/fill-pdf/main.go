// fill-pdf fills one tender form from the command line: a PDF in, a filled
// PDF out, no server required. Only the fixed coordinate layouts are
// supported here; template and analyzer flows need the service.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/formvault/pdf-stamper/internal/compose"
	"github.com/formvault/pdf-stamper/internal/extract"
	"github.com/formvault/pdf-stamper/internal/geom"
	"github.com/formvault/pdf-stamper/internal/profile"
	"github.com/formvault/pdf-stamper/internal/template"
)

func main() {
	flags := pflag.NewFlagSet("fill-pdf", pflag.ExitOnError)
	in := flags.String("in", "", "Input PDF path")
	out := flags.String("out", "", "Output PDF path (default: <in>_filled.pdf)")
	profilePath := flags.String("profile", "profile.json", "Company profile JSON path")
	formType := flags.String("form", "", "Force a form layout instead of detecting one")
	scale := flags.Float64("scale", geom.DefaultScale, "Editor zoom factor")
	verbose := flags.Bool("verbose", false, "Debug logging")

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if *in == "" {
		fmt.Fprintln(os.Stderr, "fill-pdf: --in is required")
		flags.Usage()
		os.Exit(2)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "fill-pdf"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if err := run(logger, *in, *out, *profilePath, *formType, *scale); err != nil {
		logger.Fatal("fill failed", "err", err)
	}
}

func run(logger *log.Logger, in, out, profilePath, formType string, scale float64) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	p, err := profile.Load(profilePath)
	if err != nil {
		return err
	}

	if formType == "" {
		text, err := extract.Text(data, 5)
		if err != nil {
			return fmt.Errorf("failed to extract text for form detection: %w", err)
		}
		formType = template.DetectFormType(text)
		if formType == "" {
			return fmt.Errorf("document does not match a known form layout, use --form")
		}
		logger.Info("detected form layout", "form", formType)
	}
	form, ok := template.FixedMaps[formType]
	if !ok {
		return fmt.Errorf("unknown form layout %q", formType)
	}

	doc, err := compose.Open(data)
	if err != nil {
		return err
	}

	sigPNG, err := p.SignatureImage()
	if err != nil {
		logger.Warn("no usable signature image in profile", "err", err)
		sigPNG = nil
	}

	comp := compose.NewCompositor(scale, logger)
	values := template.MapProfileToFixedFields(p)
	stamped := comp.StampFixed(doc, form, values, sigPNG)

	if out == "" {
		out = outputName(in)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer f.Close()

	if err := doc.Save(f); err != nil {
		return err
	}
	logger.Info("form filled", "form", formType, "fields", stamped, "out", out)
	return nil
}

func outputName(in string) string {
	const ext = ".pdf"
	base := in
	if len(in) > len(ext) && in[len(in)-len(ext):] == ext {
		base = in[:len(in)-len(ext)]
	}
	return base + "_filled" + ext
}
