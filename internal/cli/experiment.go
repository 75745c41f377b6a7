package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/emiliopalmerini/tmaps/internal/domain"
	"github.com/emiliopalmerini/tmaps/internal/experiment"
	"github.com/emiliopalmerini/tmaps/internal/ports"
	"github.com/emiliopalmerini/tmaps/internal/util"
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Manage experiments",
	Long:  `List, inspect, create and delete experiments on the data service, and keep local snapshots of them.`,
}

var experimentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all experiments",
	Long: `List all experiments in the order the service returns them.

With --offline, list the locally pulled snapshots instead.`,
	Args: cobra.NoArgs,
	RunE: runExperimentList,
}

var experimentShowCmd = &cobra.Command{
	Use:   "show <id> [id...]",
	Short: "Show experiment details",
	Long: `Show the details of one or more experiments, including channels and
the derived zoom and z-plane range.

Examples:
  tmaps experiment show 42
  tmaps experiment show 42 43 44
  tmaps experiment show --offline 42`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExperimentShow,
}

var experimentCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new experiment",
	Long: `Create a new experiment on the data service.

Examples:
  tmaps experiment create "siRNA screen" --plate-format 384 --microscope-type cellvoyager`,
	Args: cobra.ExactArgs(1),
	RunE: runExperimentCreate,
}

var experimentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an experiment",
	Long:  `Delete an experiment on the data service. Local snapshots are kept; use "forget" to remove them.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentDelete,
}

var experimentSubmitCmd = &cobra.Command{
	Use:   "submit <id> [workflow.json|workflow.yaml|-]",
	Short: "Submit a workflow for an experiment",
	Long: `Submit a workflow description for processing.

The description is read from the given JSON or YAML file, or as JSON from
stdin with "-".
Without a file, the workflow description stored on the experiment is submitted.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExperimentSubmit,
}

var experimentFeaturesCmd = &cobra.Command{
	Use:   "features <id>",
	Short: "List features per mapobject type",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentFeatures,
}

var experimentPullCmd = &cobra.Command{
	Use:   "pull <id> [id...]",
	Short: "Store local snapshots of experiments",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExperimentPull,
}

var experimentForgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Remove a local snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentForget,
}

// Flags
var (
	expOffline              bool
	expDescription          string
	expPlateFormat          int
	expMicroscopeType       string
	expPlateAcquisitionMode string
)

func init() {
	experimentCmd.AddCommand(experimentListCmd)
	experimentCmd.AddCommand(experimentShowCmd)
	experimentCmd.AddCommand(experimentCreateCmd)
	experimentCmd.AddCommand(experimentDeleteCmd)
	experimentCmd.AddCommand(experimentSubmitCmd)
	experimentCmd.AddCommand(experimentFeaturesCmd)
	experimentCmd.AddCommand(experimentPullCmd)
	experimentCmd.AddCommand(experimentForgetCmd)

	experimentListCmd.Flags().BoolVar(&expOffline, "offline", false, "Read local snapshots instead of the service")
	experimentShowCmd.Flags().BoolVar(&expOffline, "offline", false, "Read local snapshots instead of the service")

	experimentCreateCmd.Flags().StringVarP(&expDescription, "description", "d", "", "Description of the experiment")
	experimentCreateCmd.Flags().IntVar(&expPlateFormat, "plate-format", 384, "Number of wells per plate")
	experimentCreateCmd.Flags().StringVar(&expMicroscopeType, "microscope-type", "cellvoyager", "Microscope that acquired the images")
	experimentCreateCmd.Flags().StringVar(&expPlateAcquisitionMode, "plate-acquisition-mode", "basic", "How plates were acquired (basic or multiplexing)")
}

func runExperimentList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		if expOffline {
			repo, err := app.Snapshots(ctx)
			if err != nil {
				return err
			}
			return listSnapshots(ctx, cmd.OutOrStdout(), repo, time.Now())
		}
		return listExperiments(ctx, cmd.OutOrStdout(), app.Service)
	})
}

func runExperimentShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		var experiments []*domain.Experiment
		if expOffline {
			repo, err := app.Snapshots(ctx)
			if err != nil {
				return err
			}
			for _, id := range args {
				snapshot, err := repo.GetByID(ctx, id)
				if err != nil {
					return fmt.Errorf("experiment %s: %w", id, err)
				}
				experiments = append(experiments, snapshot.Experiment())
			}
		} else {
			var err error
			if experiments, err = experiment.GetMany(ctx, app.Service, args); err != nil {
				return err
			}
		}
		showExperiments(cmd.OutOrStdout(), experiments)
		return nil
	})
}

func runExperimentCreate(cmd *cobra.Command, args []string) error {
	input := domain.CreateExperimentInput{
		Name:                 args[0],
		Description:          expDescription,
		PlateFormat:          expPlateFormat,
		MicroscopeType:       expMicroscopeType,
		PlateAcquisitionMode: expPlateAcquisitionMode,
	}
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		return createExperiment(ctx, cmd.OutOrStdout(), app.Service, input)
	})
}

func runExperimentDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		return deleteExperiment(ctx, cmd.OutOrStdout(), app.Service, args[0])
	})
}

func runExperimentSubmit(cmd *cobra.Command, args []string) error {
	var workflow json.RawMessage
	if len(args) == 2 {
		var err error
		if workflow, err = readWorkflow(cmd.InOrStdin(), args[1]); err != nil {
			return err
		}
	}
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		return submitWorkflow(ctx, cmd.OutOrStdout(), app.Service, args[0], workflow)
	})
}

func runExperimentFeatures(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		return listFeatures(ctx, cmd.OutOrStdout(), app.Service, args[0])
	})
}

func runExperimentPull(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		repo, err := app.Snapshots(ctx)
		if err != nil {
			return err
		}
		return pullExperiments(ctx, cmd.OutOrStdout(), app.Records, repo, args, time.Now())
	})
}

func runExperimentForget(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		repo, err := app.Snapshots(ctx)
		if err != nil {
			return err
		}
		return forgetExperiment(ctx, cmd.OutOrStdout(), repo, args[0])
	})
}

func listExperiments(ctx context.Context, out io.Writer, svc ports.ExperimentService) error {
	experiments, err := svc.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(experiments) == 0 {
		fmt.Fprintln(out, "No experiments found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCHANNELS\tMAX ZOOM\tZ RANGE")
	fmt.Fprintln(w, "--\t----\t------\t--------\t--------\t-------")
	for _, exp := range experiments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			exp.ID(), util.Truncate(exp.Name, 40), util.OrDash(string(exp.Status)),
			len(exp.Channels()), maxZoomText(exp), zRangeText(exp))
	}
	return w.Flush()
}

func listSnapshots(ctx context.Context, out io.Writer, repo ports.SnapshotRepository, now time.Time) error {
	snapshots, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(out, "No local snapshots. Use 'tmaps experiment pull <id>' to store one.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCHANNELS\tFETCHED\tAGE")
	fmt.Fprintln(w, "--\t----\t------\t--------\t-------\t---")
	for _, s := range snapshots {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.Record.ID, util.Truncate(s.Record.Name, 40), util.OrDash(s.Record.Status),
			len(s.Record.Channels), util.FormatDateTime(s.FetchedAt), util.FormatAge(s.FetchedAt, now))
	}
	return w.Flush()
}

func showExperiments(out io.Writer, experiments []*domain.Experiment) {
	for i, exp := range experiments {
		if i > 0 {
			fmt.Fprintln(out)
		}
		showExperiment(out, exp)
	}
}

func showExperiment(out io.Writer, exp *domain.Experiment) {
	status := util.OrDash(string(exp.Status))
	if exp.Status != "" && !exp.Status.IsTerminal() {
		status += " (in progress)"
	}

	fmt.Fprintf(out, "Experiment: %s\n", exp.Name)
	fmt.Fprintf(out, "ID:          %s\n", exp.ID())
	fmt.Fprintf(out, "Status:      %s\n", status)
	fmt.Fprintf(out, "Description: %s\n", util.OrDash(exp.Description))
	fmt.Fprintf(out, "Plate:       %d wells, %s, %s\n", exp.PlateFormat, util.OrDash(exp.MicroscopeType), util.OrDash(exp.PlateAcquisitionMode))
	fmt.Fprintf(out, "Max zoom:    %s\n", maxZoomText(exp))
	fmt.Fprintf(out, "Z range:     %s\n", zRangeText(exp))

	channels := exp.Channels()
	if len(channels) > 0 {
		fmt.Fprintln(out, "\nChannels:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  \tNAME\tLAYERS\tBIT DEPTH")
		for _, ch := range channels {
			marker := " "
			if ch.Visible() {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s\t%s\t%d\t%d\n", marker, ch.Name, len(ch.Layers), ch.BitDepth)
		}
		w.Flush()
	}

	if len(exp.MapobjectTypes) > 0 {
		names := make([]string, len(exp.MapobjectTypes))
		for i, mt := range exp.MapobjectTypes {
			names[i] = mt.Name
		}
		fmt.Fprintf(out, "\nMapobject types: %s\n", strings.Join(names, ", "))
	}
}

func maxZoomText(exp *domain.Experiment) string {
	zoom, err := exp.MaxZoom()
	if err != nil {
		return "-"
	}
	return fmt.Sprintf("%d", zoom)
}

func zRangeText(exp *domain.Experiment) string {
	minZ, err := exp.MinZ()
	if err != nil {
		return "-"
	}
	maxZ, err := exp.MaxZ()
	if err != nil {
		return "-"
	}
	return fmt.Sprintf("%d..%d", minZ, maxZ)
}

func createExperiment(ctx context.Context, out io.Writer, svc ports.ExperimentService, input domain.CreateExperimentInput) error {
	exp, err := svc.Create(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created experiment: %s (%s)\n", exp.Name, exp.ID())
	return nil
}

func deleteExperiment(ctx context.Context, out io.Writer, svc ports.ExperimentService, id string) error {
	outcome, err := svc.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !outcome.Deleted {
		if outcome.Failure != nil {
			return fmt.Errorf("failed to delete experiment %s: %w", id, outcome.Failure)
		}
		return fmt.Errorf("failed to delete experiment %s", id)
	}
	fmt.Fprintf(out, "Deleted experiment: %s\n", id)
	return nil
}

// readWorkflow reads a workflow description from path, or from stdin when
// path is "-". Files ending in .yaml or .yml are converted to JSON.
func readWorkflow(stdin io.Reader, path string) (json.RawMessage, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlToJSON(data)
	}

	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, fmt.Errorf("workflow in %s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}

func yamlToJSON(data []byte) (json.RawMessage, error) {
	var decoded any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse workflow YAML: %w", err)
	}
	if decoded == nil {
		return nil, fmt.Errorf("workflow YAML is empty")
	}
	out, err := json.Marshal(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to convert workflow YAML: %w", err)
	}
	return out, nil
}

func submitWorkflow(ctx context.Context, out io.Writer, svc ports.ExperimentService, id string, workflow json.RawMessage) error {
	if len(workflow) == 0 {
		exp, err := svc.Get(ctx, id)
		if err != nil {
			return err
		}
		if len(exp.WorkflowDescription) == 0 {
			return fmt.Errorf("experiment %s has no stored workflow description", id)
		}
		workflow = exp.WorkflowDescription
	}

	resp, err := svc.SubmitWorkflow(ctx, id, workflow)
	if err != nil {
		return err
	}
	if resp == nil {
		fmt.Fprintf(out, "Workflow submitted for experiment %s (no response)\n", id)
		return nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resp, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(resp)
	}
	fmt.Fprintf(out, "Workflow submitted for experiment %s\n%s\n", id, pretty.String())
	return nil
}

func listFeatures(ctx context.Context, out io.Writer, svc ports.ExperimentService, id string) error {
	features, err := svc.Features(ctx, id)
	if err != nil {
		return err
	}
	if len(features) == 0 {
		fmt.Fprintln(out, "No mapobject types found")
		return nil
	}

	types := make([]string, 0, len(features))
	for name := range features {
		types = append(types, name)
	}
	sort.Strings(types)

	for _, name := range types {
		fmt.Fprintf(out, "%s (%d)\n", name, len(features[name]))
		for _, f := range features[name] {
			fmt.Fprintf(out, "  %s\n", f.Name)
		}
	}
	return nil
}

func pullExperiments(ctx context.Context, out io.Writer, fetcher ports.ExperimentRecordFetcher, repo ports.SnapshotRepository, ids []string, now time.Time) error {
	for _, id := range ids {
		rec, err := fetcher.FetchRecord(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, domain.Snapshot{Record: rec, FetchedAt: now.UTC()}); err != nil {
			return fmt.Errorf("failed to save snapshot of %s: %w", id, err)
		}
		fmt.Fprintf(out, "Pulled experiment: %s (%s)\n", rec.Name, rec.ID)
	}
	return nil
}

func forgetExperiment(ctx context.Context, out io.Writer, repo ports.SnapshotRepository, id string) error {
	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no local snapshot of experiment %s", id)
		}
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	fmt.Fprintf(out, "Removed local snapshot: %s\n", id)
	return nil
}
