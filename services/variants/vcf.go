package variants

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"candig/metadata/models/records"
)

// vcfFile is one pooled handle over a plain or bgzipped VCF. A scan
// holds the file's mutex for its whole pass, so a shared handle is
// never seeked concurrently.
type vcfFile struct {
	path string

	mux sync.Mutex
	f   *os.File
}

func openVcfFile(path string) (*vcfFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &vcfFile{path: path, f: f}, nil
}

// Close releases the underlying handle ; a scan in flight finishes
// first and a later Query transparently reopens.
func (v *vcfFile) Close() {
	v.mux.Lock()
	defer v.mux.Unlock()

	if v.f != nil {
		v.f.Close()
		v.f = nil
	}
}

// Query scans the file and returns the variants overlapping
// [start, end) on referenceName, in zero-based half-open coordinates.
// VCF rows are one-based, so POS is shifted down and the reference
// allele length closes the interval.
func (v *vcfFile) Query(variantSetId string, referenceName string, start int, end int) ([]records.Variant, error) {
	v.mux.Lock()
	defer v.mux.Unlock()

	if v.f == nil {
		f, err := os.Open(v.path)
		if err != nil {
			return nil, err
		}
		v.f = f
	}

	if _, err := v.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var reader io.Reader = v.f
	if strings.HasSuffix(v.path, ".gz") {
		gzReader, err := gzip.NewReader(v.f)
		if err != nil {
			return nil, err
		}
		defer gzReader.Close()
		reader = gzReader
	}

	variants := []records.Variant{}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		variant, err := parseVcfRow(variantSetId, line)
		if err != nil {
			return nil, err
		}

		if normalizeChrom(variant.ReferenceName) != normalizeChrom(referenceName) {
			continue
		}
		if variant.Start >= end || variant.End <= start {
			continue
		}
		variants = append(variants, variant)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return variants, nil
}

func parseVcfRow(variantSetId string, line string) (records.Variant, error) {
	columns := strings.Split(line, "\t")
	if len(columns) < 8 {
		return records.Variant{}, fmt.Errorf("malformed vcf row: %d columns", len(columns))
	}

	pos, err := strconv.Atoi(columns[1])
	if err != nil {
		return records.Variant{}, fmt.Errorf("malformed vcf position %q", columns[1])
	}

	chrom := columns[0]
	ref := columns[3]

	id := columns[2]
	if id == "." || id == "" {
		id = fmt.Sprintf("%s:%s:%d", variantSetId, chrom, pos)
	}

	alt := []string{}
	if columns[4] != "." && columns[4] != "" {
		alt = strings.Split(columns[4], ",")
	}

	return records.Variant{
		Id:            id,
		VariantSetId:  variantSetId,
		ReferenceName: chrom,
		Start:         pos - 1,
		End:           pos - 1 + len(ref),
		Ref:           ref,
		Alt:           alt,
		Qual:          columns[5],
		Filter:        columns[6],
	}, nil
}

// normalizeChrom makes "chr1" and "1" compare equal.
func normalizeChrom(chrom string) string {
	return strings.TrimPrefix(strings.ToLower(chrom), "chr")
}
