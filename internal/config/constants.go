package config

// ConfigFileNames are the recognized config file names, in lookup order.
var ConfigFileNames = []string{"objectify.yaml", "objectify.yml"}

// Target sources
const (
	SourceGo    = "go"
	SourceProto = "proto"
	SourceHCL   = "hcl"
)

// Output sinks
const (
	SinkStdout   = "stdout"
	SinkFile     = "file"
	SinkGoSource = "gosource"
	SinkSQLite   = "sqlite"
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Indent modes
const (
	IndentAuto  = "auto"
	IndentTrue  = "true"
	IndentFalse = "false"
)

// Log settings
const (
	LogFormatText = "text"
	LogFormatJSON = "json"

	DefaultLogLevel   = "info"
	DefaultGoPackage  = "shapes"
	DefaultRPCAddress = "127.0.0.1:7777"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Version is the objectify release, printed by `objectify version`.
var Version = "0.1.0"
