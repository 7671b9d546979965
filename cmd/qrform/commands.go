package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"qr_generator_client/internal/exports"
	"qr_generator_client/internal/form"
	"qr_generator_client/internal/qr"
	"qr_generator_client/internal/qr/transport"
	"qr_generator_client/internal/ui/terminal"
	"qr_generator_client/platform/config"
	"qr_generator_client/platform/logger"
	"qr_generator_client/platform/phone"
	"qr_generator_client/platform/sanitize"
	"qr_generator_client/platform/validator"
)

type app struct {
	cfg    *config.Config
	log    *logger.Logger
	out    io.Writer
	showQR bool
}

// session is everything one command needs to talk to the backend.
type session struct {
	module *qr.Module
	view   *terminal.View
	ctrl   *form.Controller
}

func (a *app) session(ctx context.Context, mutating bool) (*session, error) {
	module, err := qr.NewModule(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	if mutating && a.cfg.GetCSRFToken() == "" {
		module.PrimeCSRF(ctx)
	}

	view := terminal.New(a.out, terminal.WithASCIIQR(a.showQR))
	ctrl := form.New(module.API(), module.Tokens(), view, validator.New(), a.log,
		form.WithRecentLimit(a.cfg.GetRecentLimit()))

	return &session{module: module, view: view, ctrl: ctrl}, nil
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "qrform",
		Short:        "Create and inspect WhatsApp QR codes",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&a.showQR, "qr", false, "draw the WhatsApp link as a QR code in the terminal")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		ctx := context.WithValue(cmd.Context(), logger.CommandKey, cmd.Name())
		cmd.SetContext(ctx)
		a.log = a.log.WithContext(ctx)
	}

	root.AddCommand(
		a.recentCommand(),
		a.activeCommand(),
		a.getCommand(),
		a.statsCommand(),
		a.previewCommand(),
		a.createCommand(),
		a.imageCommand("image", "Save the inline QR image", false),
		a.imageCommand("download", "Save the high-resolution QR image", true),
		a.exportCommand(),
		a.formatCommand(),
		a.validateCommand(),
	)
	return root
}

func (a *app) recentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "Show the most recently created QR codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session(cmd.Context(), false)
			if err != nil {
				return err
			}
			return s.ctrl.LoadRecent(cmd.Context())
		},
	}
}

func (a *app) activeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List active QR codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session(cmd.Context(), false)
			if err != nil {
				return err
			}
			items, err := s.module.API().Active(cmd.Context())
			if err != nil {
				s.view.RenderLoadError(err)
				return err
			}
			if len(items) == 0 {
				s.view.RenderEmpty()
				return nil
			}
			s.view.RenderRecent(items, s.module.API().DownloadURL)
			return nil
		},
	}
}

func (a *app) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), false)
			if err != nil {
				return err
			}
			item, err := s.module.API().Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			s.view.ShowResult(*item, s.module.API().DownloadURL(item.ID))
			return nil
		},
	}
}

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <id>",
		Short: "Show scan statistics of a QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), false)
			if err != nil {
				return err
			}
			stats, err := s.module.API().Stats(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeStats(a.out, stats)
		},
	}
}

type formFlags struct {
	client      string
	group       string
	number      string
	message     string
	description string
}

func (f *formFlags) bind(cmd *cobra.Command, withDescription bool) {
	cmd.Flags().StringVar(&f.client, "client", "", "client name")
	cmd.Flags().StringVar(&f.group, "group", "", "group name")
	cmd.Flags().StringVar(&f.number, "number", "", "WhatsApp number")
	cmd.Flags().StringVar(&f.message, "message", "", "pre-filled WhatsApp message (defaults to a greeting for --group)")
	if withDescription {
		cmd.Flags().StringVar(&f.description, "description", "", "free-text description")
	}
}

func (f *formFlags) fields(ctrl *form.Controller) form.Fields {
	return form.Fields{
		ClientName:      f.client,
		GroupName:       f.group,
		WhatsAppNumber:  ctrl.FormatNumber(f.number),
		WhatsAppMessage: ctrl.SuggestMessage(f.group, f.message),
		Description:     f.description,
	}
}

func (a *app) previewCommand() *cobra.Command {
	var flags formFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a QR code without saving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session(cmd.Context(), true)
			if err != nil {
				return err
			}
			_, err = s.ctrl.Preview(cmd.Context(), flags.fields(s.ctrl))
			return err
		},
	}
	flags.bind(cmd, false)
	return cmd
}

func (a *app) createCommand() *cobra.Command {
	var (
		flags    formFlags
		copyLink bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create and save a QR code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session(cmd.Context(), true)
			if err != nil {
				return err
			}
			created, err := s.ctrl.Create(cmd.Context(), flags.fields(s.ctrl))
			if err != nil {
				return err
			}
			defer s.ctrl.CloseModal()
			if copyLink {
				return s.ctrl.CopyToClipboard(created.WhatsAppURL)
			}
			return nil
		},
	}
	flags.bind(cmd, true)
	cmd.Flags().BoolVar(&copyLink, "copy", false, "copy the WhatsApp link to the clipboard")
	return cmd
}

func (a *app) imageCommand(use, short string, attachment bool) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), false)
			if err != nil {
				return err
			}

			fetch := s.module.API().Image
			if attachment {
				fetch = s.module.API().Download
			}
			img, err := fetch(cmd.Context(), id)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = filepath.Base(img.Filename)
				if img.Filename == "" {
					path = id + ".png"
				}
			}
			if err := os.WriteFile(path, img.Data, 0o644); err != nil {
				return fmt.Errorf("write image: %w", err)
			}
			fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", path, len(img.Data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (defaults to the backend filename)")
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	var (
		dir        string
		format     string
		activeOnly bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download every QR image and a listing into a directory or bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listingFormat, err := exports.ParseFormat(format)
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), false)
			if err != nil {
				return err
			}

			list := s.module.API().List
			if activeOnly {
				list = s.module.API().Active
			}
			items, err := list(cmd.Context())
			if err != nil {
				return err
			}

			module := exports.NewModule(s.module.API(), a.cfg, a.log)
			sink, err := module.Sink(cmd.Context(), dir, time.Now().UTC().Format("20060102-150405"))
			if err != nil {
				return err
			}
			report, err := module.Run(cmd.Context(), items, sink, listingFormat)
			if err != nil {
				return err
			}

			for _, r := range report.Written {
				fmt.Fprintf(a.out, "%s -> %s\n", r.ID, r.Location)
			}
			for _, r := range report.Failed {
				fmt.Fprintf(a.out, "%s failed: %v\n", r.ID, r.Err)
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d of %d images failed", len(report.Failed), len(items))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "qr-exports", "local directory, used when MinIO is not configured")
	cmd.Flags().StringVar(&format, "format", "csv", "listing format: csv, json or yaml")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "export only active QR codes")
	return cmd
}

func (a *app) formatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "format <number>",
		Short: "Print a WhatsApp number the way it is sent to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, phone.Format(args[0]))
			return nil
		},
	}
}

func (a *app) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <number>",
		Short: "Check whether a WhatsApp number is accepted",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			formatted := phone.Format(args[0])
			if !phone.ValidWhatsApp(args[0]) {
				return fmt.Errorf("%s is not a valid WhatsApp number", formatted)
			}
			line := formatted + " is valid"
			if region, ok := phone.Region(formatted); ok {
				line += " (" + region + ")"
			}
			fmt.Fprintln(a.out, line)
			return nil
		},
	}
}

func parseID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid QR id %q: %w", raw, err)
	}
	return id.String(), nil
}

func writeStats(w io.Writer, stats *transport.Stats) error {
	status := "inactive"
	if stats.IsActive {
		status = "active"
	}
	_, err := fmt.Fprintf(w, "ID:           %s\nClient:       %s\nGroup:        %s\nStatus:       %s\nTotal scans:  %d\nLast 7 days:  %d\n",
		sanitize.Text(stats.ID), sanitize.Text(stats.ClientName), sanitize.Text(stats.GroupName),
		status, stats.TotalScans, stats.RecentScans)
	return err
}
