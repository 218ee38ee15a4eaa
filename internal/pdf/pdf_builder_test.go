package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type testImage struct {
	name string // XObject resource name
	cs   string // DeviceGray, DeviceRGB or DeviceCMYK
	w, h int
	seed byte
}

type testPage struct {
	text   string
	images []testImage
}

var csComponents = map[string]int{
	"DeviceGray": 1,
	"DeviceRGB":  3,
	"DeviceCMYK": 4,
}

// buildPDF writes a small PDF 1.4 file: Helvetica text on every page and
// 8-bit FlateDecode image XObjects, with a computed xref table. Image
// objects are numbered in slice order.
func buildPDF(t *testing.T, pages []testPage) []byte {
	t.Helper()

	var objs [][]byte
	add := func(body []byte) int {
		objs = append(objs, body)
		return len(objs)
	}

	catalog := add(nil)
	root := add(nil)
	font := add([]byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"))

	kids := make([]string, 0, len(pages))
	for _, p := range pages {
		pageNr := add(nil)

		var content bytes.Buffer
		fmt.Fprintf(&content, "BT /F1 12 Tf 72 720 Td (%s) Tj ET\n", p.text)

		var xobjs strings.Builder
		for i, img := range p.images {
			nr := add(imageObject(t, img))
			fmt.Fprintf(&xobjs, " /%s %d 0 R", img.name, nr)
			fmt.Fprintf(&content, "q 20 0 0 20 %d 100 cm /%s Do Q\n", 72+30*i, img.name)
		}
		contentNr := add(streamObject("", content.Bytes()))

		res := fmt.Sprintf("/Font << /F1 %d 0 R >>", font)
		if xobjs.Len() > 0 {
			res += " /XObject <<" + xobjs.String() + " >>"
		}
		objs[pageNr-1] = fmt.Appendf(nil, "<< /Type /Page /Parent %d 0 R /Resources << %s >> /Contents %d 0 R >>",
			root, res, contentNr)
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNr))
	}

	objs[catalog-1] = fmt.Appendf(nil, "<< /Type /Catalog /Pages %d 0 R >>", root)
	objs[root-1] = fmt.Appendf(nil, "<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
		strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		buf.Write(body)
		buf.WriteString("\nendobj\n")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objs)+1, catalog, xref)

	return buf.Bytes()
}

func streamObject(dict string, data []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<< /Length %d%s >>\nstream\n", len(data), dict)
	b.Write(data)
	b.WriteString("\nendstream")
	return b.Bytes()
}

func imageObject(t *testing.T, img testImage) []byte {
	t.Helper()

	comps, ok := csComponents[img.cs]
	require.True(t, ok, "color space %s", img.cs)

	raw := make([]byte, img.w*img.h*comps)
	for i := range raw {
		raw[i] = img.seed + byte(i*7)
	}

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	_, err := zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	dict := fmt.Sprintf(" /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent 8 /Filter /FlateDecode",
		img.w, img.h, img.cs)
	return streamObject(dict, z.Bytes())
}
