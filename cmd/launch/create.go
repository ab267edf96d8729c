package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
)

type createOptions struct {
	name        string
	ticker      string
	description string
	twitter     string
	website     string
	telegram    string
	liquidity   string
	imagePath   string
}

// readImage loads an image file and sniffs its content type.
func readImage(path string) (domain.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Image{}, fmt.Errorf("read image: %w", err)
	}
	return domain.Image{Data: data, ContentType: http.DetectContentType(data)}, nil
}

// request builds and validates the launch request from the flags.
func (o *createOptions) request() (*domain.LaunchRequest, error) {
	if o.imagePath == "" {
		return nil, fmt.Errorf("%w: --image is required", launch.ErrValidation)
	}
	img, err := readImage(o.imagePath)
	if err != nil {
		return nil, err
	}
	amount, err := launch.ParseLiquidity(o.liquidity)
	if err != nil {
		return nil, err
	}

	req := &domain.LaunchRequest{
		Name:        o.name,
		Ticker:      o.ticker,
		Description: o.description,
		Links: domain.Links{
			X:        o.twitter,
			Website:  o.website,
			Telegram: o.telegram,
		},
		InitialLiquidity: amount,
		Image:            img,
	}
	if err := launch.ValidateRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

func createCommand() *cobra.Command {
	opts := &createOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Launch one token from flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}

			a, err := pipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			_, err = runLaunch(cmd.Context(), cmd.OutOrStdout(), a.Orchestrator, req)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.name, "name", "", "token name (max 32 characters)")
	f.StringVar(&opts.ticker, "ticker", "", "token symbol (max 10 characters)")
	f.StringVar(&opts.description, "description", "", "short description (max 100 characters)")
	f.StringVar(&opts.twitter, "twitter", "", "X profile link")
	f.StringVar(&opts.website, "website", "", "project website")
	f.StringVar(&opts.telegram, "telegram", "", "Telegram link")
	f.StringVar(&opts.liquidity, "liquidity", "", "initial buy in SOL (0.1-5), empty to skip")
	f.StringVar(&opts.imagePath, "image", "", "path to the token image")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("ticker")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}
