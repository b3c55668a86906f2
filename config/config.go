// Package config loads the bot's settings from .env, the environment and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nstehr/ogbot/agent"
)

// Config holds every runtime setting.
type Config struct {
	Ports       []int
	Launch      bool
	BrowserPath string
	ProfileDir  string
	Headless    bool

	LoginPoll      time.Duration
	ActionInterval time.Duration
	SleepSlice     time.Duration
	RetryJitter    time.Duration

	RaidShips    int
	AutoBuild    bool
	AutoRaid     bool
	AutoColonize bool
	Doctrine     string

	Journal    string
	StatusAddr string
	LogFile    string
	LogLevel   string
}

// GetSetting returns the environment value for envKey, or defaultValue when
// it is unset or blank.
func GetSetting(envKey, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	return defaultValue
}

// getOptionalSetting is GetSetting for features that an explicitly empty
// value switches off.
func getOptionalSetting(envKey, defaultValue string) string {
	if v, ok := os.LookupEnv(envKey); ok {
		return strings.TrimSpace(v)
	}
	return defaultValue
}

func getBoolSetting(envKey string, defaultValue bool) bool {
	return parseBoolDefault(os.Getenv(envKey), defaultValue)
}

func getIntSetting(envKey string, defaultValue int) int {
	v := os.Getenv(envKey)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("ignoring invalid integer setting", "key", envKey, "value", v)
		return defaultValue
	}
	return n
}

func getDurationSetting(envKey string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(envKey)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("ignoring invalid duration setting", "key", envKey, "value", v)
		return defaultValue
	}
	return d
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// ParsePorts reads a comma separated port list.
func ParsePorts(s string) ([]int, error) {
	var ports []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		p, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("port %q: %w", f, err)
		}
		ports = append(ports, p)
	}
	return ports, nil
}

func formatPorts(ports []int) string {
	s := make([]string, len(ports))
	for i, p := range ports {
		s[i] = strconv.Itoa(p)
	}
	return strings.Join(s, ",")
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Ports:          []int{9223, 9222, 9224, 9225},
		ProfileDir:     "/tmp/ogbot-profile",
		LoginPoll:      5 * time.Second,
		ActionInterval: 500 * time.Millisecond,
		SleepSlice:     60 * time.Second,
		RaidShips:      5,
		AutoBuild:      true,
		AutoRaid:       true,
		AutoColonize:   true,
		Journal:        "data/ogbot.db",
		StatusAddr:     "127.0.0.1:8089",
		LogFile:        "logs/ogbot.log",
		LogLevel:       "info",
	}
}

// Load reads .env if present, then OGBOT_* environment variables, then
// args. The result is validated.
func Load(args []string) (Config, error) {
	_ = godotenv.Load()

	d := Defaults()
	ports, err := ParsePorts(GetSetting("OGBOT_PORTS", formatPorts(d.Ports)))
	if err != nil {
		return Config{}, fmt.Errorf("OGBOT_PORTS: %w", err)
	}
	c := Config{
		Ports:          ports,
		Launch:         getBoolSetting("OGBOT_LAUNCH", d.Launch),
		BrowserPath:    GetSetting("OGBOT_BROWSER_PATH", d.BrowserPath),
		ProfileDir:     GetSetting("OGBOT_PROFILE_DIR", d.ProfileDir),
		Headless:       getBoolSetting("OGBOT_HEADLESS", d.Headless),
		LoginPoll:      getDurationSetting("OGBOT_LOGIN_POLL", d.LoginPoll),
		ActionInterval: getDurationSetting("OGBOT_ACTION_INTERVAL", d.ActionInterval),
		SleepSlice:     getDurationSetting("OGBOT_SLEEP_SLICE", d.SleepSlice),
		RetryJitter:    getDurationSetting("OGBOT_RETRY_JITTER", d.RetryJitter),
		RaidShips:      getIntSetting("OGBOT_RAID_SHIPS", d.RaidShips),
		AutoBuild:      getBoolSetting("OGBOT_AUTO_BUILD", d.AutoBuild),
		AutoRaid:       getBoolSetting("OGBOT_AUTO_RAID", d.AutoRaid),
		AutoColonize:   getBoolSetting("OGBOT_AUTO_COLONIZE", d.AutoColonize),
		Doctrine:       GetSetting("OGBOT_DOCTRINE", d.Doctrine),
		Journal:        getOptionalSetting("OGBOT_JOURNAL", d.Journal),
		StatusAddr:     getOptionalSetting("OGBOT_STATUS_ADDR", d.StatusAddr),
		LogFile:        getOptionalSetting("OGBOT_LOG_FILE", d.LogFile),
		LogLevel:       GetSetting("OGBOT_LOG_LEVEL", d.LogLevel),
	}

	fs := flag.NewFlagSet("ogbot", flag.ContinueOnError)
	portList := fs.String("ports", formatPorts(c.Ports), "comma separated remote debugging ports to probe")
	fs.BoolVar(&c.Launch, "launch", c.Launch, "start a browser when none is listening")
	fs.StringVar(&c.BrowserPath, "browser-path", c.BrowserPath, "browser executable used with -launch")
	fs.StringVar(&c.ProfileDir, "profile-dir", c.ProfileDir, "browser profile directory used with -launch")
	fs.BoolVar(&c.Headless, "headless", c.Headless, "run a launched browser headless")
	fs.DurationVar(&c.LoginPoll, "login-poll", c.LoginPoll, "how often to check for a logged-in game tab")
	fs.DurationVar(&c.ActionInterval, "action-interval", c.ActionInterval, "minimum spacing between page actions")
	fs.DurationVar(&c.SleepSlice, "sleep-slice", c.SleepSlice, "longest wait between stop checks")
	fs.DurationVar(&c.RetryJitter, "retry-jitter", c.RetryJitter, "random extra wait after a failed cycle")
	fs.IntVar(&c.RaidShips, "raid-ships", c.RaidShips, "small cargo ships per raid")
	fs.BoolVar(&c.AutoBuild, "auto-build", c.AutoBuild, "run the build phase")
	fs.BoolVar(&c.AutoRaid, "auto-raid", c.AutoRaid, "run the raid phase")
	fs.BoolVar(&c.AutoColonize, "auto-colonize", c.AutoColonize, "run the colonize phase")
	fs.StringVar(&c.Doctrine, "doctrine", c.Doctrine, "doctrine JSON file tuning build and raid rules")
	fs.StringVar(&c.Journal, "journal", c.Journal, "SQLite cycle journal path, empty to disable")
	fs.StringVar(&c.StatusAddr, "status-addr", c.StatusAddr, "status HTTP listen address, empty to disable")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "log file teed with stdout, empty to disable")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if c.Ports, err = ParsePorts(*portList); err != nil {
		return Config{}, fmt.Errorf("-ports: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if len(c.Ports) == 0 {
		errs = append(errs, errors.New("no debugging ports configured"))
	}
	for _, p := range c.Ports {
		if p < 1 || p > 65535 {
			errs = append(errs, fmt.Errorf("port %d out of range", p))
		}
	}
	if c.SleepSlice <= 0 || c.SleepSlice > agent.MaxSleepSlice {
		errs = append(errs, fmt.Errorf("sleep slice %v must be in (0, %v]", c.SleepSlice, agent.MaxSleepSlice))
	}
	if c.LoginPoll <= 0 {
		errs = append(errs, fmt.Errorf("login poll %v must be positive", c.LoginPoll))
	}
	if c.ActionInterval < 0 {
		errs = append(errs, fmt.Errorf("action interval %v must not be negative", c.ActionInterval))
	}
	if c.RetryJitter < 0 {
		errs = append(errs, fmt.Errorf("retry jitter %v must not be negative", c.RetryJitter))
	}
	if c.RaidShips <= 0 {
		errs = append(errs, fmt.Errorf("raid ships %d must be positive", c.RaidShips))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level maps LogLevel to a slog level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
