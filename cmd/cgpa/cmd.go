package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/cgpa-server/internal/curriculum"
	handler "github.com/godilite/cgpa-server/internal/grpc"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	dial func(target string) (grpc.ClientConnInterface, func() error, error)
}

func dialGRPC(target string) (grpc.ClientConnInterface, func() error, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.Close, nil
}

func (cli *commandLine) run(args []string) error {
	fs := flag.NewFlagSet("cgpa", flag.ContinueOnError)
	fs.SetOutput(cli.stderr)
	file := fs.String("f", "-", "course data JSON file, - for stdin")
	server := fs.String("grpc", "", "score remotely on the CGPACalculator gRPC server at host:port")
	timeout := fs.Duration("timeout", 5*time.Second, "remote call timeout")
	fs.Usage = func() {
		fmt.Fprintln(cli.stderr, "Usage: cgpa [-f FILE] [-grpc HOST:PORT] [-timeout DURATION]")
		fmt.Fprintln(cli.stderr, "Reads course marks as JSON and prints the CGPA breakdown.")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return errHelp
	}

	raw, err := cli.readInput(*file)
	if err != nil {
		return err
	}

	var out []byte
	if *server == "" {
		out, err = scoreLocally(raw)
	} else {
		out, err = cli.scoreRemotely(*server, *timeout, raw)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cli.stdout, string(out))
	return err
}

func (cli *commandLine) readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cli.stdin)
	}
	return os.ReadFile(name)
}

func scoreLocally(raw []byte) ([]byte, error) {
	var in curriculum.Input
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("parse course data: %w", err)
		}
	}

	result, err := curriculum.Calculate(in)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(result, "", "  ")
}

func (cli *commandLine) scoreRemotely(target string, timeout time.Duration, raw []byte) ([]byte, error) {
	var courseData map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &courseData); err != nil {
			return nil, fmt.Errorf("parse course data: %w", err)
		}
	}
	req, err := structpb.NewStruct(map[string]any{"courseData": courseData})
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	conn, closeConn, err := cli.dial(target)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", target, err)
	}
	defer closeConn()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := handler.NewClient(conn).Calculate(ctx, req)
	if err != nil {
		if st, ok := status.FromError(err); ok {
			return nil, errors.New(st.Message())
		}
		return nil, err
	}
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
}
