// The boltquery command runs a query against a Bolt server, prints the
// result records, and optionally appends per-run timing samples to a CSV
// file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"

	"github.com/graphwire/bolt/client"
	"github.com/graphwire/bolt/message"
	"github.com/graphwire/bolt/packstream"
	"github.com/graphwire/bolt/pool"
	"github.com/graphwire/bolt/version"
)

func init() {
	// Always prepend the filename and line number.
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	// A variable to enable mocking for testing.
	logFatal = log.Fatal
)

var (
	addr      = flag.String("addr", "localhost:7687", "Address of the Bolt server")
	tlsDomain = flag.String("tls", "", "Enable TLS and verify the server certificate against this domain")
	user      = flag.String("user", "neo4j", "User name for basic authentication")
	password  = flag.String("password", "", "Password for basic authentication")
	database  = flag.String("database", "", "Database to run against (V4+ servers); empty means the default")
	query     = flag.String("query", "RETURN 1;", "Query to run")
	reps      = flag.Int("reps", 1, "How many times to run the query")
	csvFile   = flag.String("csv", "", "Append one timing sample per run to this CSV file")
)

// sample is one timing measurement, in CSV column order.
type sample struct {
	Timestamp string `csv:"timestamp"`
	Query     string `csv:"query"`
	Records   int    `csv:"records"`
	Micros    int64  `csv:"micros"`
	Version   string `csv:"bolt_version"`
}

// runOnce submits the query and drains the result stream, returning the
// record count.
func runOnce(c *client.Client) (int, error) {
	var md map[string]packstream.Value
	if *database != "" {
		md = map[string]packstream.Value{"db": *database}
	}
	resp, err := c.RunWithMetadata(*query, nil, md)
	if err != nil {
		return 0, err
	}
	if failure, ok := resp.(message.Failure); ok {
		log.Println("Query failed:", failure.Code(), failure.Text())
		_, err := c.Reset()
		return 0, err
	}
	var records []message.Record
	var summary message.Message
	if c.Version() >= version.V4_0 {
		records, summary, err = c.Pull(map[string]packstream.Value{"n": -1})
	} else {
		records, summary, err = c.PullAll()
	}
	if err != nil {
		return 0, err
	}
	for _, r := range records {
		fmt.Println(r.Fields...)
	}
	if failure, ok := summary.(message.Failure); ok {
		log.Println("Pull failed:", failure.Code(), failure.Text())
		_, err := c.Reset()
		return len(records), err
	}
	return len(records), nil
}

func writeSamples(samples []*sample, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return gocsv.MarshalFile(&samples, f)
	}
	return gocsv.MarshalWithoutHeaders(&samples, f)
}

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not get args from environment")

	p := pool.New(pool.Config{
		Addr:      *addr,
		TLSDomain: *tlsDomain,
		UserAgent: "boltquery/1.0",
		Auth: map[string]packstream.Value{
			"scheme":      "basic",
			"principal":   *user,
			"credentials": *password,
		},
	})
	defer p.Close()

	c, err := p.Get()
	if err != nil {
		logFatal("Could not connect: ", err)
	}
	log.Println("Connected with Bolt version", version.String(c.Version()))

	samples := make([]*sample, 0, *reps)
	for i := 0; i < *reps; i++ {
		start := time.Now()
		n, err := runOnce(c.Client)
		if err != nil {
			logFatal("Query round trip failed: ", err)
		}
		samples = append(samples, &sample{
			Timestamp: start.UTC().Format(time.RFC3339Nano),
			Query:     *query,
			Records:   n,
			Micros:    time.Since(start).Microseconds(),
			Version:   version.String(c.Version()),
		})
	}
	p.Put(c)

	if *csvFile != "" {
		rtx.Must(writeSamples(samples, *csvFile), "Could not write %s", *csvFile)
	}
}
