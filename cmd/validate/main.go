// Command validate runs one delimited file through a format definition
// and prints the JSON report.
//
//	validate -f format.yml [-o report.json] FILE
//
// FILE is a local path or an s3://bucket/key URL. The exit code is 0 when
// the file is accepted, 1 when it is rejected and 2 on usage or I/O
// errors.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/verdata/tabular/internal/config"
	"github.com/verdata/tabular/internal/fileformat"
	"github.com/verdata/tabular/internal/logging"
	"github.com/verdata/tabular/internal/storage"
)

func main() {
	formatPath := flag.String("f", "", "path to the format definition (required)")
	outPath := flag.String("o", "", "write the report to this file instead of stdout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s -f format.yml [-o report.json] FILE\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *formatPath == "" || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	godotenv.Load()
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	report, err := run(context.Background(), *formatPath, flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		os.Exit(2)
	}

	if err := writeReport(report, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		os.Exit(2)
	}

	if !report.Accepted() {
		os.Exit(1)
	}
}

func run(ctx context.Context, formatPath, input string) (fileformat.Report, error) {
	format, err := fileformat.FromFile(formatPath)
	if err != nil {
		return fileformat.Report{}, err
	}

	if !storage.IsURL(input) {
		return format.ProcessFile(input)
	}

	bucket, key, err := storage.ParseURL(input)
	if err != nil {
		return fileformat.Report{}, err
	}

	cfg, err := config.Load()
	if err != nil {
		return fileformat.Report{}, err
	}
	client, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		PathStyle: cfg.Storage.PathStyle,
	})
	if err != nil {
		return fileformat.Report{}, err
	}

	body, err := client.Read(ctx, bucket, key)
	if err != nil {
		return fileformat.Report{}, err
	}
	defer body.Close()

	table, err := fileformat.ReadTable(body, format.Options.SkipRows)
	if err != nil {
		return fileformat.Report{}, fmt.Errorf("reading %s: %w", input, err)
	}
	return format.Process(table).WithFilename(input), nil
}

func writeReport(report fileformat.Report, outPath string) error {
	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
