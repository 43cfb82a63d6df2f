// Package cliargs parses argv into either a standard-mode invocation
// or an export-mode invocation plus trailing watermark options, using
// plain positional and name/value matching rather than a flag library.
package cliargs

import (
	"strings"

	"github.com/VantageDataChat/rpt-extract/internal/rptx"
	"github.com/VantageDataChat/rpt-extract/internal/watermarkpdf"
)

// Mode identifies which positional shape argv matched.
type Mode int

const (
	ModeStandard Mode = iota
	ModeExport
)

// Args is the parsed, validated result of a command line.
type Args struct {
	Mode Mode

	// ModeStandard fields.
	RptPath    string
	Rule       string
	TextPath   string
	BinaryPath string

	// ModeExport fields.
	ExportTarget string // a file or a directory; caller disambiguates with os.Stat

	Watermark watermarkpdf.Config
}

var watermarkOptionNames = map[string]func(*watermarkpdf.Config, string) bool{
	"watermarkimage": func(c *watermarkpdf.Config, v string) bool {
		c.ImagePath = v
		return true
	},
	"watermarkposition": func(c *watermarkpdf.Config, v string) bool {
		p, ok := watermarkpdf.ParsePosition(v)
		if !ok {
			return false
		}
		c.Position = p
		return true
	},
	"watermarkrotation": func(c *watermarkpdf.Config, v string) bool {
		n, ok := watermarkpdf.ParseIntField(v)
		if !ok {
			return false
		}
		c.SetRotation(n)
		return true
	},
	"watermarkopacity": func(c *watermarkpdf.Config, v string) bool {
		n, ok := watermarkpdf.ParseIntField(v)
		if !ok {
			return false
		}
		c.SetOpacity(n)
		return true
	},
	"watermarkscale": func(c *watermarkpdf.Config, v string) bool {
		f, ok := watermarkpdf.ParseFloatField(v)
		if !ok {
			return false
		}
		c.SetScale(f)
		return true
	},
}

// Parse interprets argv (excluding the program name, i.e. os.Args[1:])
// against the two positional shapes:
//
//	<rpt> <rule> <txt> <bin> [watermark-opts]
//	<rpt-or-dir> Export [watermark-opts]
func Parse(argv []string) (Args, error) {
	if len(argv) < 2 {
		return Args{}, rptx.Newf(rptx.KindInvalidArgs, "parse args",
			"usage: rpt-extract <rpt> <rule> <txt> <bin> [watermark-opts] | rpt-extract <rpt-or-dir> Export [watermark-opts]")
	}

	if strings.EqualFold(argv[1], "export") {
		args := Args{Mode: ModeExport, ExportTarget: argv[0]}
		if err := parseWatermarkOptions(argv[2:], &args.Watermark); err != nil {
			return Args{}, err
		}
		return args, nil
	}

	if len(argv) < 4 {
		return Args{}, rptx.Newf(rptx.KindInvalidArgs, "parse args",
			"standard mode requires <rpt> <rule> <txt> <bin>")
	}
	args := Args{
		Mode:       ModeStandard,
		RptPath:    argv[0],
		Rule:       argv[1],
		TextPath:   argv[2],
		BinaryPath: argv[3],
	}
	if err := parseWatermarkOptions(argv[4:], &args.Watermark); err != nil {
		return Args{}, err
	}
	return args, nil
}

// parseWatermarkOptions consumes name/value pairs case-insensitively,
// with any number of leading dashes stripped from the name ("-x",
// "--x" and "x" are all accepted). Unknown names are silently ignored
// for forward compatibility; malformed values for a recognized name
// are reported.
func parseWatermarkOptions(rest []string, cfg *watermarkpdf.Config) error {
	for i := 0; i < len(rest); i++ {
		name := strings.ToLower(strings.TrimLeft(rest[i], "-"))
		setter, ok := watermarkOptionNames[name]
		if !ok {
			continue
		}
		if i+1 >= len(rest) {
			return rptx.Newf(rptx.KindInvalidArgs, "parse watermark options", "missing value for "+rest[i])
		}
		value := rest[i+1]
		i++
		if !setter(cfg, value) {
			return rptx.Newf(rptx.KindInvalidArgs, "parse watermark options", "invalid value for "+name+": "+value)
		}
	}
	return nil
}
