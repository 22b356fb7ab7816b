// Package cli wires configuration, logging and the annotation client into
// the image-describe command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-describe/internal/annotate"
	"github.com/ironsheep/image-describe/internal/config"
	"github.com/ironsheep/image-describe/internal/describe"
)

// BuildInfo is set by ldflags in main.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// AnnotatorCloser is an annotator holding a connection.
type AnnotatorCloser interface {
	describe.Annotator
	Close() error
}

// Dialer creates the annotation client. An empty credentialsPath selects
// Application Default Credentials.
type Dialer func(ctx context.Context, credentialsPath string, log logrus.FieldLogger) (AnnotatorCloser, error)

// CloudDialer connects to Google Cloud Vision.
func CloudDialer(ctx context.Context, credentialsPath string, log logrus.FieldLogger) (AnnotatorCloser, error) {
	client, err := annotate.New(ctx, credentialsPath, annotate.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// app carries state shared by all commands.
type app struct {
	info   BuildInfo
	dial   Dialer
	lookup func(string) (string, bool)

	envFile     string
	imagePath   string
	credentials string
	logLevel    string
	timeout     time.Duration

	cfg config.Config
	log *logrus.Logger
}

// NewRootCmd builds the command tree. Running the root command without a
// subcommand describes an image.
func NewRootCmd(info BuildInfo, dial Dialer) *cobra.Command {
	a := &app{info: info, dial: dial, lookup: os.LookupEnv}

	cmd := &cobra.Command{
		Use:   "image-describe",
		Short: "Describe an image with Google Cloud Vision",
		Long: `image-describe sends one image to Google Cloud Vision and prints a single line
combining the first line of detected text, the basic name of the dominant
color, and the most topical label:

  <text> - <color> - <label>

By default it reads img1.png and authenticates with the service account in
secret.json.

Examples:
  $ image-describe
  $ image-describe --image photo.jpg --credentials ~/sa.json
  $ image-describe classify 255 180 50
  $ image-describe serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file to load (ignored if missing)")
	flags.StringVarP(&a.imagePath, "image", "i", config.DefaultImagePath, "image file to describe (env "+config.EnvImage+")")
	flags.StringVarP(&a.credentials, "credentials", "c", config.DefaultCredentialsPath, "service account JSON file (env "+config.EnvCredentials+")")
	flags.StringVar(&a.logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error (env "+config.EnvLogLevel+")")
	flags.DurationVar(&a.timeout, "timeout", config.DefaultTimeout, "deadline for one description (env "+config.EnvTimeout+")")

	describeCmd := newDescribeCmd(a)
	cmd.Flags().AddFlagSet(describeCmd.Flags())
	cmd.RunE = describeCmd.RunE

	cmd.AddCommand(describeCmd)
	cmd.AddCommand(newClassifyCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

// setup resolves configuration in order defaults < .env < environment <
// flags, then creates the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("image") {
		cfg.ImagePath = a.imagePath
	}
	if flags.Changed("credentials") {
		cfg.CredentialsPath = a.credentials
		cfg.CredentialsSet = true
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}

	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetOutput(cmd.ErrOrStderr())

	a.cfg = cfg
	a.log = log
	return nil
}

// connect dials the annotation client with the configured credentials.
// Failures are reported as authentication errors.
func (a *app) connect(ctx context.Context) (AnnotatorCloser, error) {
	creds := config.ResolveCredentials(a.cfg.CredentialsPath, a.cfg.CredentialsSet, a.lookup)
	a.log.WithField("credentials", creds).Debug("connecting to vision service")

	client, err := a.dial(ctx, creds, a.log)
	if err != nil {
		return nil, describe.NewError(describe.KindAuth, "connect", err)
	}
	return client, nil
}

// Execute runs the command tree with args and returns the process exit
// code. Errors are printed to stdout as "An error occurred: <err>".
func Execute(info BuildInfo, dial Dialer, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCmd(info, dial)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stdout, "An error occurred: %v\n", err)
		return 1
	}
	return 0
}
