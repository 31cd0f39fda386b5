// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// bcf2write exercises the BCF2 writer pipeline end to end: it builds a
// synthetic header and a deterministic stream of VariantRecords, wires them
// through the optional SortBuffer and async-queue stages into the core
// writer, and produces a .bcf file, optionally bgzf-compressed, indexed, and
// MD5-summed.
//
// Usage: bcf2write --out result.bcf [flags]
package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/grailbio/base/log"
	flag "github.com/spf13/pflag"

	"github.com/grailbio/bcf2/bufferedwriter"
	"github.com/grailbio/bcf2/bufferedwriter/shardedbcf2"
	"github.com/grailbio/bcf2/encoding/bcf2"
	"github.com/grailbio/bcf2/index/gvindex"
	"github.com/grailbio/bcf2/variant"
)

var (
	outFlag           = flag.String("out", "", "Output .bcf path (required). \"s3://bucket/key\" writes to S3.")
	indexFlag         = flag.String("index", "", "If set, write an on-the-fly gvindex index (C8/S1) to this path.")
	recordsFlag       = flag.Int("records", 2000, "Number of synthetic records to generate.")
	samplesFlag       = flag.Int("samples", 4, "Number of synthetic samples.")
	contigsFlag       = flag.String("contigs", "chr1:249250621,chr2:243199373", "Comma-separated name:length contig list.")
	seedFlag          = flag.Int64("seed", 1, "Seed for the synthetic record generator.")
	sortWindowFlag    = flag.Int64("sort-window", 0, "If > 0, wrap the writer in a SortBuffer (C9) with this reordering window.")
	asyncFlag         = flag.Bool("async", false, "Route Add through the async queue (C10).")
	asyncDepthFlag    = flag.Int("async-queue-depth", 0, "Async queue depth (0 selects the default).")
	bgzfFlag          = flag.Bool("bgzf", false, "Wrap output in bgzf block compression.")
	md5Flag           = flag.Bool("md5", false, "Compute and print the MD5 digest of the written bytes.")
	allowMissingFlag  = flag.Bool("allow-missing", false, "Drop records referencing INFO/FORMAT keys absent from the header instead of failing.")
	skipGenotypesFlag = flag.Bool("skip-genotypes", false, "Omit genotype (FORMAT) blocks from every record.")
	forceBCFFlag      = flag.Bool("force-bcf", false, "Set the writer's FORCE_BCF knob (spec.md §4.7).")
	shardsFlag        = flag.Int("shards", 0, "If > 0, use the parallel shardedbcf2 writer (S2) with this many shards instead of the single-stream pipeline.")
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	flag.Parse()

	if *outFlag == "" {
		log.Panicf("--out is required")
	}
	if *bgzfFlag && *indexFlag != "" {
		log.Panicf("--bgzf and --index are mutually exclusive: indexed byte offsets must refer to the uncompressed record stream")
	}
	if *shardsFlag > 0 && (*sortWindowFlag > 0 || *asyncFlag || *indexFlag != "") {
		log.Panicf("--shards is a standalone parallel-writer path (S2) and does not compose with --sort-window, --async, or --index")
	}

	contigs, err := parseContigs(*contigsFlag)
	if err != nil {
		log.Panicf("--contigs: %v", err)
	}
	samples := sampleNames(*samplesFlag)
	header := syntheticHeader(contigs, samples)

	registerS3()
	ctx := context.Background()

	if *shardsFlag > 0 {
		runSharded(ctx, header, contigs, samples)
		return
	}
	run(ctx, header, contigs, samples)
}

// registerS3 wires grailbio-base/file/s3file in as the "s3" scheme
// implementation, so file.Create("s3://...") works the same way
// file.Create of a local path does. Grounded on cmd/bio-bam-sort's use of
// plain file.Open/file.Create for scheme-transparent I/O, generalized to
// register the implementation this binary actually needs instead of relying
// on a package-init side effect.
func registerS3() {
	provider := s3file.NewDefaultProvider(session.Options{})
	impl := s3file.NewImplementation(provider, s3file.Options{})
	file.RegisterImplementation("s3", func() file.Implementation { return impl })
}

// run drives the single-stream pipeline: core writer, optionally wrapped by
// on-the-fly indexing and the async queue (inside WriterBuilder.Build), with
// SortBuffer applied outside the builder so data flows
// SortBuffer -> AsyncQueue -> core writer, per spec.md §2's composition
// order.
func run(ctx context.Context, header *variant.VariantHeader, contigs []contigSpec, samples []string) {
	rawSink, err := newFileSink(ctx, *outFlag)
	if err != nil {
		log.Panicf("create %v: %v", *outFlag, err)
	}
	var sink variant.OutputByteSink = rawSink
	if *bgzfFlag {
		sink, err = newBGZFSink(rawSink)
		if err != nil {
			log.Panicf("bgzf: %v", err)
		}
	}

	opts := []bcf2.Option{}
	if *skipGenotypesFlag {
		opts = append(opts, bcf2.DoNotWriteGenotypes())
	}
	if *allowMissingFlag {
		opts = append(opts, bcf2.AllowMissingFieldsInHeader())
	}
	if *forceBCFFlag {
		opts = append(opts, bcf2.ForceBCF())
	}
	if *md5Flag {
		opts = append(opts, bcf2.ComputeMD5())
	}
	if *asyncFlag {
		opts = append(opts, bcf2.UseAsyncIO(*asyncDepthFlag))
	}

	if *indexFlag != "" {
		indexSink, err := newFileSink(ctx, *indexFlag)
		if err != nil {
			log.Panicf("create %v: %v", *indexFlag, err)
		}
		opts = append(opts, bcf2.IndexOnTheFly(gvindex.NewBuilder(), indexSink))
	}

	builder := bcf2.NewWriterBuilder(sink, opts...)
	var w variant.Writer = builder.Build()
	if *sortWindowFlag > 0 {
		w = bufferedwriter.NewSortBuffer(w, *sortWindowFlag)
	}

	if err := w.WriteHeader(header); err != nil {
		log.Panicf("WriteHeader: %v", err)
	}
	gen := newGenerator(contigs, samples, *seedFlag, *recordsFlag)
	n := 0
	for {
		rec, ok := gen.Next()
		if !ok {
			break
		}
		if err := w.Add(rec); err != nil {
			log.Panicf("Add record %d (%s:%d): %v", n, rec.Contig(), rec.Start(), err)
		}
		n++
	}
	if err := w.Close(); err != nil {
		log.Panicf("Close: %v", err)
	}
	log.Info.Printf("bcf2write: wrote %d records to %s", n, *outFlag)

	if *md5Flag {
		fmt.Printf("%x  %s\n", builder.Core().MD5Sum(), *outFlag)
	}
}

// runSharded drives the parallel shardedbcf2 writer (S2): the record stream
// is split into *shardsFlag contiguous shards, each encoded independently,
// and reassembled in order. This path bypasses SortBuffer/AsyncQueue/C8
// indexing entirely, since those stages assume a single ordered record
// stream rather than independently-encoded shards.
func runSharded(ctx context.Context, header *variant.VariantHeader, contigs []contigSpec, samples []string) {
	sink, err := newFileSink(ctx, *outFlag)
	if err != nil {
		log.Panicf("create %v: %v", *outFlag, err)
	}

	queueSize := *shardsFlag + 1
	sw, err := shardedbcf2.NewShardedWriter(sinkAsWriter{sink}, queueSize, header, *skipGenotypesFlag)
	if err != nil {
		log.Panicf("NewShardedWriter: %v", err)
	}

	gen := newGenerator(contigs, samples, *seedFlag, *recordsFlag)
	perShard := (*recordsFlag + *shardsFlag - 1) / *shardsFlag
	if perShard < 1 {
		perShard = 1
	}

	n := 0
	for shardNum := 0; ; shardNum++ {
		recs := make([]*variant.VariantRecord, 0, perShard)
		for i := 0; i < perShard; i++ {
			rec, ok := gen.Next()
			if !ok {
				break
			}
			recs = append(recs, rec)
		}
		if len(recs) == 0 {
			break
		}
		c, err := sw.GetCompressor()
		if err != nil {
			log.Panicf("GetCompressor: %v", err)
		}
		c.StartShard(shardNum)
		for _, rec := range recs {
			if err := c.AddRecord(rec); err != nil {
				log.Panicf("AddRecord %d: %v", n, err)
			}
			n++
		}
		if err := c.CloseShard(); err != nil {
			log.Panicf("CloseShard %d: %v", shardNum, err)
		}
	}
	if err := sw.Close(); err != nil {
		log.Panicf("Close: %v", err)
	}
	if err := sink.Close(); err != nil {
		log.Panicf("Close %v: %v", *outFlag, err)
	}
	log.Info.Printf("bcf2write: wrote %d records across shards to %s", n, *outFlag)
}
