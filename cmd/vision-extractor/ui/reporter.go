package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/spherical/vision-extractor/internal/domain"
)

var (
	stepColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed, color.Bold)
	headingColor = color.New(color.Bold)
)

// ReporterOptions configures a Reporter.
type ReporterOptions struct {
	// Spinner animates on the error stream while the model is generating.
	Spinner bool
	Verbose bool
}

// Reporter renders pipeline events on the console. The report goes to out;
// the spinner goes to errOut.
type Reporter struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool
	spinner *Spinner
}

// NewReporter creates a console reporter.
func NewReporter(out, errOut io.Writer, opts ReporterOptions) *Reporter {
	r := &Reporter{out: out, errOut: errOut, verbose: opts.Verbose}
	if opts.Spinner {
		r.spinner = NewSpinner(errOut, "Waiting for the model...")
	}
	return r
}

// Handle renders one event. It is a domain.Emitter.
func (r *Reporter) Handle(event domain.StreamEvent) {
	switch event.Type {
	case domain.EventStart:
		stepColor.Fprintln(r.out, "Reading file...")
		if r.verbose {
			fmt.Fprintf(r.out, "  %v\n", event.Payload)
		}

	case domain.EventAssetReady:
		if asset, ok := event.Payload.(domain.AssetReadyPayload); ok {
			switch {
			case asset.Backend == "hosted":
				fmt.Fprintf(r.out, "File ID: %s\n", asset.Handle)
			case asset.Handle != "":
				fmt.Fprintf(r.out, "Image: %s\n", asset.Handle)
			default:
				fmt.Fprintln(r.out, "Image attached inline")
			}
		}

	case domain.EventGenerating:
		stepColor.Fprintln(r.out, "Generating response...")
		r.startSpinner()

	case domain.EventRawOutput:
		r.stopSpinner()
		headingColor.Fprintln(r.out, "\nRaw output:")
		fmt.Fprintln(r.out, event.Payload)

	case domain.EventParsed:
		successColor.Fprintln(r.out, "\nParsed JSON:")
		fmt.Fprintln(r.out, event.Payload)

	case domain.EventParseFailed:
		failColor.Fprintln(r.out, "\n❌ Model returned invalid JSON")
		if p, ok := event.Payload.(domain.ParseFailurePayload); ok {
			fmt.Fprintln(r.out, p.Raw)
			fmt.Fprintf(r.out, "Error: %s\n", p.Error)
		}

	case domain.EventError:
		r.stopSpinner()

	case domain.EventComplete:
		if r.verbose {
			successColor.Fprintf(r.out, "\n✓ %v\n", event.Payload)
		}
	}
}

// Close stops any running animation.
func (r *Reporter) Close() {
	r.stopSpinner()
}

func (r *Reporter) startSpinner() {
	if r.spinner != nil {
		r.spinner.Start()
	}
}

func (r *Reporter) stopSpinner() {
	if r.spinner != nil {
		r.spinner.Stop()
	}
}

