package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"regdesk/internal/intake"
	"regdesk/internal/lookup"
	"regdesk/internal/models"
)

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	id := fs.String("operator", "", "operator ID")
	name := fs.String("name", "", "operator display name")
	role := fs.String("role", "operator", "operator role")
	token := fs.String("token", os.Getenv("INTAKE_TOKEN"), "backend access token (default $INTAKE_TOKEN)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sessions, err := a.sessionManager(ctx)
	if err != nil {
		return err
	}
	sess, err := sessions.Login(ctx, models.Operator{ID: *id, Name: *name, Role: *role}, *token)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s at %s until %s\n", sess.Operator.ID, sess.StationID, sess.ExpiresAt.Format("15:04 02 Jan"))
	return nil
}

func runLogout(ctx context.Context, a *app) error {
	sessions, err := a.sessionManager(ctx)
	if err != nil {
		return err
	}
	return sessions.Logout(ctx)
}

func runRegister(ctx context.Context, a *app, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	village := fs.String("village", "", "village")
	district := fs.String("district", "", "district ID")
	block := fs.String("block", "", "block within the district")
	category := fs.String("category", "", "registrant category")
	mobile := fs.String("mobile", "", "10-digit mobile number")
	aadhaar := fs.String("aadhaar", "", "12-digit Aadhaar number")
	photo := fs.String("photo", "", "optional photo file")
	yes := fs.Bool("yes", false, "submit without the review prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gw, err := a.gateway(ctx)
	if err != nil {
		return err
	}
	notifier, err := a.notifications(ctx)
	if err != nil {
		return err
	}

	opts := []intake.Option{
		intake.WithValidator(intake.NewValidator(a.catalog)),
		intake.WithNotifier(notifier),
		intake.WithNormalizer(a.normalizer),
		intake.WithLogger(a.log),
	}
	if r := a.recorder(); r != nil {
		opts = append(opts, intake.WithRecorder(r))
	}
	m := intake.NewMachine(gw, opts...)
	defer m.Dispose()

	if err := m.Edit(func(d *intake.Draft) {
		d.FullName = *name
		d.Village = *village
		d.SetDistrict(*district)
		d.BlockID = *block
		d.Category = *category
		d.SetMobile(*mobile)
		d.SetNationalID(*aadhaar)
	}); err != nil {
		return err
	}

	if *photo != "" {
		p, err := readPhoto(*photo)
		if err != nil {
			return err
		}
		if err := m.AttachPhoto(p); err != nil {
			return err
		}
	}

	res, err := m.Continue()
	if err != nil {
		return err
	}
	if !res.OK {
		return res.Err()
	}

	printReview(out, m.Snapshot().Draft)
	if !*yes && !confirm(in, out) {
		if err := m.Back(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Not submitted.")
		return nil
	}

	if _, err := m.Confirm(ctx); err != nil {
		return err
	}
	if notice := m.Snapshot().Notice; notice != nil {
		fmt.Fprintln(out, notice.Message)
	}
	return nil
}

func readPhoto(path string) (*models.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return &models.Photo{
		Filename:    filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

func printReview(out io.Writer, d intake.Draft) {
	fmt.Fprintln(out, "Review registration:")
	fmt.Fprintf(out, "  Name:     %s\n", d.FullName)
	fmt.Fprintf(out, "  Village:  %s\n", d.Village)
	fmt.Fprintf(out, "  District: %s\n", d.DistrictID)
	fmt.Fprintf(out, "  Block:    %s\n", d.BlockID)
	fmt.Fprintf(out, "  Category: %s\n", d.Category)
	fmt.Fprintf(out, "  Mobile:   %s\n", d.Mobile)
	fmt.Fprintf(out, "  Aadhaar:  %s\n", d.NationalID)
	if d.Photo != nil {
		fmt.Fprintf(out, "  Photo:    %s (%d bytes)\n", d.Photo.Filename, d.Photo.Size())
	}
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Submit? [y/N] ")
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func runLookup(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: intake-station lookup <aadhaar>")
	}

	gw, err := a.gateway(ctx)
	if err != nil {
		return err
	}

	opts := []lookup.Option{
		lookup.WithNormalizer(a.normalizer),
		lookup.WithLogger(a.log),
	}
	if r := a.recorder(); r != nil {
		opts = append(opts, lookup.WithRecorder(r))
	}
	flow := lookup.NewFlow(gw, opts...)
	defer flow.Dispose()

	res, err := flow.Check(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	switch res.State {
	case lookup.Found:
		r := res.Registration
		fmt.Fprintf(out, "Registered: %s\n", res.Code)
		fmt.Fprintf(out, "  Name:     %s\n", r.Name)
		fmt.Fprintf(out, "  Village:  %s\n", r.Village)
		fmt.Fprintf(out, "  District: %s / %s\n", r.District, r.Block)
		fmt.Fprintf(out, "  Category: %s\n", r.Category)
		if r.PhotoURL != "" {
			fmt.Fprintf(out, "  Photo:    %s\n", r.PhotoURL)
		}
		return nil
	case lookup.NotFound:
		fmt.Fprintln(out, res.Message)
		return nil
	default:
		return res.Err
	}
}
