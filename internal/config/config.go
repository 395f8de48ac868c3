// Package config loads touchd.ini: an INI-like file with comments, inline
// comments, line continuation and loosely-typed values, plus defaults for
// every recognised key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const defaultSection = "default"

var (
	sectionRE = regexp.MustCompile(`^\[(?P<name>[^\]]+)\](.*)$`)
	nameRE    = `[\w ]+`
)

// Config is a parsed configuration file: sections of key/value pairs with
// type coercion applied to every value. Keys set via Load's defaults live
// in the "default" section and are overridden by values read from disk into
// that same section (keys before any section header, or under [default]);
// the same key under another section makes Get report it as ambiguous.
type Config struct {
	Path string

	assignChars         string
	commentChars         string
	allowInlineComments bool
	allowContinuation   bool

	sectionOrder []string
	data         map[string]map[string]Value
}

// New returns an empty Config with the format options fixed by the
// recognised configuration grammar (":=" assignment, "#;" comments, inline
// comments and trailing-backslash continuation all enabled).
func New() *Config {
	return &Config{
		assignChars:         ":=",
		commentChars:        "#;",
		allowInlineComments: true,
		allowContinuation:   true,
		data:                map[string]map[string]Value{defaultSection: {}},
		sectionOrder:        []string{defaultSection},
	}
}

// Load resolves filename relative to the current directory first, then
// relative to basedir, applies the built-in defaults, and reads the file
// if one was found. A missing file is not an error: the defaults stand
// alone, matching the original loader's "could not read config" fallback.
func Load(basedir, filename string) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	path := filepath.Join(cwd, filename)
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(basedir, filename)
	}

	cfg := New()
	cfg.Path = path
	applyDefaults(cfg)

	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	if err := cfg.read(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(c *Config) {
	c.SetDefault("devW", "16cm")
	c.SetDefault("devH", "9cm")
	c.SetDefault("dragDist", "30px")
	c.SetDefault("enhSglClick", "off")
	c.SetDefault("enhDblClick", "off")
	c.SetDefault("holdForRightClick", "off")
	c.SetDefault("pinchToZoom", "off")
	c.SetDefault("sglClickTime", "0.2")
	c.SetDefault("dblClickTime", "0.4")
	c.SetDefault("longClickTime", "0.5")
	c.SetDefault("rightClickDelay", "0.4")
	c.SetDefault("gestureDeadTime", "0.1")
	c.SetDefault("pinchAngleThreshold", "30")
	c.SetDefault("parallelAngleThreshold", "30")
	c.SetDefault("directionAngleThreshold", "15")
	c.SetDefault("pinchToZoomClicksFormula", "1")
	c.SetDefault("scrollAmountFormula", "l/10")
	c.SetDefault("horScrollAmountFormula", "l/15")
	c.SetDefault("moveGestureFormula", "l/10")
	c.SetDefault("live", "off")
	c.SetDefault("zoomModeCtrlPlusMinus", "on")
	c.SetDefault("enableHorizontalScroll", "on")
	c.SetDefault("debug", "off")
}

// SetDefault sets name in the default section, applying the same type
// coercion as a value read from disk (it is Set on the default section).
func (c *Config) SetDefault(name, raw string) {
	c.Set(defaultSection, name, raw)
}

// Set stores a raw value under section/name, applying the same type
// coercion as a value read from disk.
func (c *Config) Set(section, name, raw string) {
	if _, ok := c.data[section]; !ok {
		c.data[section] = map[string]Value{}
		c.sectionOrder = append(c.sectionOrder, section)
	}
	c.data[section][name] = newValue(raw)
}

func (c *Config) read() error {
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return err
	}
	lines := joinContinuations(strings.Split(string(raw), "\n"), c.allowContinuation)

	section := defaultSection
	nameValueRE := regexp.MustCompile(`^(?P<name>` + nameRE + `) *[` + regexp.QuoteMeta(c.assignChars) + `] *(?P<value>.*)$`)

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if strings.ContainsAny(trimmed[:1], c.commentChars) {
			continue
		}
		if m := sectionRE.FindStringSubmatch(trimmed); m != nil {
			section = strings.TrimSpace(m[1])
			if _, ok := c.data[section]; !ok {
				c.data[section] = map[string]Value{}
				c.sectionOrder = append(c.sectionOrder, section)
			}
			continue
		}
		m := nameValueRE.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		value := m[2]
		if c.allowInlineComments {
			value = stripInlineComment(value, c.commentChars)
		}
		c.Set(section, name, strings.TrimSpace(value))
	}
	return nil
}

func joinContinuations(lines []string, allow bool) []string {
	if !allow {
		return lines
	}
	out := make([]string, 0, len(lines))
	var pending string
	for _, l := range lines {
		if strings.HasSuffix(l, "\\") {
			pending += strings.TrimSuffix(l, "\\")
			continue
		}
		if pending != "" {
			out = append(out, pending+l)
			pending = ""
			continue
		}
		out = append(out, l)
	}
	if pending != "" {
		out = append(out, pending)
	}
	return out
}

func stripInlineComment(value string, commentChars string) string {
	idx := len(value)
	for _, c := range commentChars {
		if i := strings.IndexRune(value, c); i != -1 && i < idx {
			idx = i
		}
	}
	return strings.TrimRight(value[:idx], " \t")
}

// Get searches every section for name and returns its typed value,
// erroring if name is ambiguously defined in more than one section.
func (c *Config) Get(name string) (Value, error) {
	var (
		found Value
		count int
	)
	for _, section := range c.sectionOrder {
		if v, ok := c.data[section][name]; ok {
			found, count = v, count+1
		}
	}
	switch count {
	case 0:
		return Value{}, nil
	case 1:
		return found, nil
	default:
		return Value{}, fmt.Errorf("config: %q is defined in %d sections", name, count)
	}
}

// GetSection returns name's typed value from a specific section only.
func (c *Config) GetSection(section, name string) Value {
	return c.data[section][name]
}

// String renders the configuration the way --show-config displays it.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Configuration %q:\n", c.Path)
	for _, section := range c.sectionOrder {
		fmt.Fprintf(&b, "  [%s]\n", section)
		for name, v := range c.data[section] {
			fmt.Fprintf(&b, "    %s = %v\n", name, v.v)
		}
	}
	return b.String()
}
