package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bucketctl/internal/app"
	"bucketctl/internal/configstore"
	"bucketctl/internal/domain"
	"bucketctl/internal/session"
	"bucketctl/internal/validator"
	"bucketctl/pkg/storage"
	"bucketctl/pkg/utils"
)

// reportedError marks a failure whose details were already printed
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

var (
	configFile   string
	settingsFile string
	verbose      bool
	timeout      time.Duration
	metricsFile  string

	settings *utils.Settings

	// reported counts batch outcomes already printed by report
	reported atomic.Int32

	// Version information
	Version   = "1.2.0"
	BuildTime = time.Now().Format("2006-01-02")
	GoVersion = runtime.Version()
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\n⚠️  Interruption detected. Cancelling current operations...")
		fmt.Println("   Press Ctrl+C again to force exit.")
		cancel()
		<-sigChan
		fmt.Println("\n🛑 Force exit.")
		os.Exit(1)
	}()

	var rootCmd = &cobra.Command{
		Use:   "bucketctl",
		Short: "bucketctl - manage the files of a cloud storage bucket",
		Long: `bucketctl lists, uploads, downloads and deletes the files of a single
cloud storage bucket.

Supported providers:
- Supabase Storage (default)
- Amazon S3 and S3-compatible services
- MinIO

The connection is read from a flat config.txt next to the executable,
created with 'bucketctl config init'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := utils.LoadSettings(settingsFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("timeout") {
				loaded.Transfer.Timeout = timeout
			}
			if metricsFile != "" {
				loaded.Metrics.File = metricsFile
			}

			utils.SetLogLevel(loaded.Log.Level)
			if verbose {
				utils.SetLogLevel("debug")
			}
			utils.Debug("Log level: %s", utils.LogLevel())

			settings = loaded
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Connection file (default: config.txt next to the executable)")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "Settings file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-operation timeout, 0 for none")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile on exit")

	// List command
	var lsCmd = &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the files in the bucket",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			long, _ := cmd.Flags().GetBool("long")
			return runList(ctx, long)
		},
	}
	lsCmd.Flags().BoolP("long", "l", false, "Show size and modification time")

	// Upload command
	var uploadCmd = &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files to the bucket",
		Long:  "Uploads local files under their base name, or under --as for a single file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overwrite := settings.Transfer.Overwrite
			if cmd.Flags().Changed("overwrite") {
				overwrite, _ = cmd.Flags().GetBool("overwrite")
			}
			remoteName, _ := cmd.Flags().GetString("as")

			policy := session.Fail
			if overwrite {
				policy = session.Overwrite
			}
			return runUpload(ctx, args, remoteName, policy)
		},
	}
	uploadCmd.Flags().Bool("overwrite", false, "Replace files that already exist in the bucket")
	uploadCmd.Flags().String("as", "", "Remote name for a single uploaded file")

	// Download command
	var downloadCmd = &cobra.Command{
		Use:   "download NAME...",
		Short: "Download files from the bucket",
		Long: `Downloads files through short-lived signed links.

Without --dest files go to transfer.download_dir, then to ~/Desktop when it
exists, then to the working directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, _ := cmd.Flags().GetString("dest")
			return runDownload(ctx, args, dest)
		},
	}
	downloadCmd.Flags().StringP("dest", "d", "", "Destination file, or directory for several files")

	// Delete command
	var rmCmd = &cobra.Command{
		Use:     "rm NAME...",
		Aliases: []string{"delete"},
		Short:   "Delete files from the bucket",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(ctx, args)
		},
	}

	// Config commands
	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the connection file",
	}

	var configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Create the connection file",
		Long:  "Writes the connection file from flags, or asks for each value with --interactive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive, _ := cmd.Flags().GetBool("interactive")
			force, _ := cmd.Flags().GetBool("force")
			settingsOut, _ := cmd.Flags().GetString("write-settings")

			var conn storage.Connection
			conn.EndpointURL, _ = cmd.Flags().GetString("api-url")
			conn.APIKey, _ = cmd.Flags().GetString("api-key")
			conn.Bucket, _ = cmd.Flags().GetString("bucket")
			conn.Provider, _ = cmd.Flags().GetString("provider")
			conn.SecretKey, _ = cmd.Flags().GetString("secret-key")
			conn.Region, _ = cmd.Flags().GetString("region")

			return runConfigInit(conn, interactive, force, settingsOut)
		},
	}
	configInitCmd.Flags().BoolP("interactive", "i", false, "Interactive mode")
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing connection file")
	configInitCmd.Flags().String("write-settings", "", "Also write the effective settings to this YAML file")
	configInitCmd.Flags().String("api-url", "", "Storage endpoint URL")
	configInitCmd.Flags().String("api-key", "", "API key (access key for S3 and MinIO)")
	configInitCmd.Flags().String("bucket", "", "Bucket name")
	configInitCmd.Flags().String("provider", "", "Storage provider (supabase, s3, minio)")
	configInitCmd.Flags().String("secret-key", "", "Secret key for S3 and MinIO")
	configInitCmd.Flags().String("region", "", "Region for S3 and MinIO")

	var configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the connection file with keys masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	var configTestCmd = &cobra.Command{
		Use:   "test",
		Short: "Test the connection",
		Long:  "Validates the connection file, connects and lists the bucket. --write also uploads, downloads and deletes a small test object.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			write, _ := cmd.Flags().GetBool("write")
			return runConfigTest(ctx, write)
		},
	}
	configTestCmd.Flags().Bool("write", false, "Also test write, read and delete permissions")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configTestCmd)

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			showVersion()
		},
	}

	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		var printed *reportedError
		if !errors.As(err, &printed) {
			fmt.Fprintf(os.Stderr, "%s\n", describe(err))
		}
		os.Exit(1)
	}
}

// describe renders a command failure, with a hint for a missing connection file
func describe(err error) string {
	message := domain.Describe(err)
	if errors.Is(err, domain.ErrNoConfig) || errors.Is(err, domain.ErrIncompleteConfig) {
		message += "\nRun 'bucketctl config init' to create the connection file."
	}
	return message
}

// report prints one batch outcome
func report(item string, result fmt.Stringer, err error) {
	reported.Add(1)
	if err != nil {
		utils.ProgressError(domain.Describe(err))
		return
	}
	utils.ProgressSuccess(result.String())
}

// openApp loads the connection file and connects
func openApp(ctx context.Context) (*app.App, error) {
	if verbose {
		utils.Info("Connecting with %s", connectionPath())
	}
	return app.Open(ctx, app.Options{
		ConfigPath: configFile,
		Settings:   settings,
		Report:     report,
	})
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		utils.Warn("%v", err)
	}
}

func connectionPath() string {
	if configFile != "" {
		return configFile
	}
	return configstore.DefaultPath()
}

// runList prints the bucket content
func runList(ctx context.Context, long bool) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	listing, err := a.List(ctx)
	if err != nil {
		return err
	}

	if listing.Len() == 0 {
		fmt.Println("No files found.")
		return nil
	}

	for obj := range listing.All() {
		if !long {
			fmt.Println(obj.Name)
			continue
		}
		modified := "-"
		if !obj.LastModified.IsZero() {
			modified = humanize.Time(obj.LastModified)
		}
		fmt.Printf("%10s  %-16s  %s\n", humanize.Bytes(uint64(obj.Size)), modified, obj.Name)
	}

	utils.ProgressInfo(listing.String())
	return nil
}

// batchResult keeps main from printing failures report already printed
func batchResult(err error) error {
	if err != nil && reported.Load() > 0 {
		return &reportedError{err: err}
	}
	return err
}

// runUpload uploads every path
func runUpload(ctx context.Context, paths []string, remoteName string, policy session.ConflictPolicy) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if !verbose {
		var total int64
		for _, path := range paths {
			if info, err := os.Stat(path); err == nil {
				total += info.Size()
			}
		}
		utils.ProgressStep(fmt.Sprintf("Uploading %d file(s), %s", len(paths), humanize.Bytes(uint64(total))))

		bar := utils.NewProgressBar("upload", total)
		a.TrackProgress(bar)
		defer bar.Finish()
	}

	return batchResult(a.UploadAll(ctx, paths, remoteName, policy))
}

// runDownload downloads every name
func runDownload(ctx context.Context, names []string, dest string) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if !verbose {
		utils.ProgressStep(fmt.Sprintf("Downloading %d file(s)", len(names)))

		bar := utils.NewProgressBar("download", 0)
		a.TrackProgress(bar)
		defer bar.Finish()
	}

	return batchResult(a.DownloadAll(ctx, names, dest))
}

// runDelete deletes every name
func runDelete(ctx context.Context, names []string) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	return batchResult(a.DeleteAll(ctx, names))
}

// runConfigInit writes the connection file, and the effective settings when settingsOut is set
func runConfigInit(conn storage.Connection, interactive, force bool, settingsOut string) error {
	path := connectionPath()

	if utils.FileExists(path) && !force {
		return fmt.Errorf("file %s already exists. Use --force to overwrite", path)
	}

	if verbose {
		utils.Info("Generating connection file: %s", path)
	}

	if interactive {
		if _, err := validator.GenerateInteractiveConfig(path, utils.StdPrompter(), os.Stdout, conn); err != nil {
			return err
		}
		return writeSettings(settingsOut)
	}

	if !conn.Complete() {
		return fmt.Errorf("--api-url, --api-key and --bucket are required (or use --interactive)")
	}

	if err := validator.GenerateConfig(path, conn); err != nil {
		return err
	}

	utils.ProgressSuccess(fmt.Sprintf("Configuration saved to: %s", path))
	utils.ProgressInfo("Test it with: bucketctl config test")
	return writeSettings(settingsOut)
}

// writeSettings saves the settings in effect to path
func writeSettings(path string) error {
	if path == "" {
		return nil
	}
	if utils.FileExists(path) {
		return fmt.Errorf("file %s already exists", path)
	}
	if err := utils.WriteSettings(settings, path); err != nil {
		return err
	}
	utils.ProgressSuccess(fmt.Sprintf("Settings saved to: %s", path))
	return nil
}

// runConfigShow prints the connection file with keys masked
func runConfigShow() error {
	path := connectionPath()

	conn, err := configstore.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("# %s\n", path)
	return configstore.Write(os.Stdout, configstore.Masked(conn))
}

// runConfigTest validates the connection against the live bucket
func runConfigTest(ctx context.Context, write bool) error {
	if verbose {
		utils.Info("🧪 Testing configuration: %s", connectionPath())
	} else {
		utils.ProgressStep(fmt.Sprintf("🧪 Testing configuration: %s", connectionPath()))
	}

	a, err := app.New(app.Options{ConfigPath: configFile, Settings: settings})
	if err != nil {
		return err
	}
	defer closeApp(a)

	conn, err := configstore.Load(a.ConfigPath())
	if err != nil {
		return err
	}

	if err := validator.NewConnectionValidator(conn, a.Session()).ValidateAll(ctx, verbose, write); err != nil {
		return err
	}

	utils.ProgressSuccess("🎉 Configuration is valid and functional!")
	return nil
}

// showVersion displays version information
func showVersion() {
	fmt.Printf("🚀 bucketctl %s\n", Version)
	fmt.Printf("📦 Build: %s\n", BuildTime)
	fmt.Printf("🔧 Go: %s\n", GoVersion)
}
