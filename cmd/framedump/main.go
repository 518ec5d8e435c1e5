// framedump reads a raw capture file and prints what is inside, decoding
// camera payloads where possible.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/robodyne/go-follow/pkg/framelog"
	"github.com/robodyne/go-follow/pkg/rosmsg"
)

func main() {
	path := flag.String("path", "", "capture file to read")
	limit := flag.Int("limit", 0, "stop after this many records (0 = all)")
	decode := flag.Bool("decode", true, "attempt to decode payloads as camera frames")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: framedump -path <capture file> [-limit n] [-decode=false]")
		os.Exit(2)
	}

	rd, err := framelog.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *path, err)
		os.Exit(1)
	}
	defer rd.Close()

	n := 0
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "record %d: %v\n", n, err)
			os.Exit(1)
		}
		n++

		ts := time.Unix(0, rec.Timestamp)
		fmt.Printf("#%d %s key=%s bytes=%d",
			n, ts.Format("15:04:05.000"), rec.Key, len(rec.Payload))
		if *decode {
			if frame, err := rosmsg.DecodeImage(rec.Payload); err == nil {
				match := "table"
				if !frame.TableMatch {
					match = "sqrt"
				}
				fmt.Printf(" frame=%dx%d (%s, %d px bytes)",
					frame.Width, frame.Height, match, len(frame.Pixels))
			} else {
				fmt.Printf(" undecodable: %v", err)
			}
		}
		fmt.Println()

		if *limit > 0 && n >= *limit {
			break
		}
	}
	fmt.Printf("%d records\n", n)
}
