package config

const (
	// EnvDatabase is the variable naming the database the suite works on
	EnvDatabase = "TSTDB"
	// EnvHostname is the variable naming the host running the server
	EnvHostname = "TSTHOSTNAME"
	// EnvUsername is the variable carrying the server login name
	EnvUsername = "TSTUSERNAME"
	// EnvPassword is the variable carrying the server login password
	EnvPassword = "TSTPASSWORD"
	// EnvDebug is the variable switching suite debug output on or off
	EnvDebug = "TSTDEBUG"
)

const (
	// DefaultDatabase is the database name exported to the suite
	DefaultDatabase = "demo"
	// DefaultHostname is the server host exported to the suite
	DefaultHostname = "localhost"
	// DefaultUsername is the login name exported to the suite
	DefaultUsername = "monetdb"
	// DefaultPassword is the login password exported to the suite
	DefaultPassword = "monetdb"
	// DefaultDebug is the debug switch exported to the suite
	DefaultDebug = "no"
)

const (
	// DefaultPort is the port the daemon control channel listens on
	DefaultPort = 50000
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultSuitePath is the directory holding the suite modules
	DefaultSuitePath = "tests"
	// DefaultEnvFile is the dotenv file read before the environment
	DefaultEnvFile = ".env"
	// DefaultOutputJSONFile is the default output JSON file name
	DefaultOutputJSONFile = "test-results.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = "storage"
	// DefaultProcessors is the default number of processors
	DefaultProcessors = 1
	// DefaultRunnerProgram is the interpreter the suite modules run under
	DefaultRunnerProgram = "python3"
)

// DefaultRunnerArgs are handed to the runner program before the module path
var DefaultRunnerArgs = []string{"-m", "pytest"}

// DefaultModules are the suite modules a bare run invokes, in order
var DefaultModules = []string{"runtests", "test_control"}

// DefaultPathsToIgnore are the default directories to ignore when scanning for modules
var DefaultPathsToIgnore = []string{
	"__pycache__",
	"venv",
	".venv",
	".tox",
	".pytest_cache",
	"storage",
}
