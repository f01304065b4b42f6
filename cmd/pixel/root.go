package main

import (
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/logger"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/settings"
	"github.com/spf13/cobra"
)

// globals holds the persistent flags and the settings resolved from them.
type globals struct {
	configFile  string
	envFile     string
	root        string
	environment string
	json        bool
	verbose     bool

	settings settings.Settings
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "pixel",
		Short: "Render prompt templates with a hosted model and publish the results",
		Long: `pixel turns a job config (prompts/<job>.json|yaml|toml) and a Jinja-style
template (prompt_templates/) into a model completion, then writes it to
outputs/ as HTML and markdown and uploads both to the environment's bucket.

Environment:
  DEPLOY_ENV        beta (default) or prod
  S3_BUCKET_BETA    bucket for beta artifacts (required by run)
  S3_BUCKET_PROD    bucket for prod artifacts (required by run)
  AWS_REGION        region for Bedrock, S3 and SQS (default us-east-1)
  FILENAME          job id used when none is given

Examples:
  pixel init                 # scaffold prompts/, prompt_templates/, outputs/
  pixel render welcome       # show the prompt without calling the model
  DEPLOY_ENV=prod pixel run welcome`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configFile, "config", "", "settings file (YAML or TOML)")
	flags.StringVar(&g.envFile, "env-file", ".env", "path to .env file (ignored if missing)")
	flags.StringVar(&g.root, "root", "", "workspace root (default: settings root or .)")
	flags.StringVarP(&g.environment, "environment", "e", "", "deployment environment: beta or prod (overrides DEPLOY_ENV)")
	flags.BoolVar(&g.json, "json", false, "JSON logs and machine-readable output")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newRunCmd(g),
		newRenderCmd(g),
		newInitCmd(g),
		newMCPCmd(g),
	)

	return cmd
}

// load resolves settings and initializes the logger. Flags win over the
// environment and the settings file.
func (g *globals) load(cmd *cobra.Command) error {
	s, err := settings.Load(settings.LoadOptions{ConfigFile: g.configFile, EnvFile: g.envFile})
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		s.Root = g.root
	}
	if flags.Changed("environment") {
		s.Environment = settings.ParseEnvironment(g.environment)
	}
	if flags.Changed("json") {
		s.Log.JSON = g.json
	}
	if g.verbose {
		s.Log.Level = "debug"
	}

	if err := s.Validate(false); err != nil {
		return err
	}

	if err := logger.Initialize(logger.Options{JSON: s.Log.JSON, Level: s.Log.Level}); err != nil {
		return err
	}

	g.settings = s
	return nil
}

// jobArg returns the job id from args, falling back to the configured
// default (FILENAME).
func (g *globals) jobArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return g.settings.Job
}
