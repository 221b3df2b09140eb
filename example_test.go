package phonodist_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/hupe1980/phonodist"
	"github.com/hupe1980/phonodist/align"
	"github.com/hupe1980/phonodist/distance"
	"github.com/hupe1980/phonodist/feature"
)

const stops = "phoneme\tname\talias\tconsonantal\tvoice\tlabial\n" +
	"p\tvoiceless bilabial stop\tp\t+\t-\t+\n" +
	"b\tvoiced bilabial stop\tb\t+\t+\t+\n" +
	"t\tvoiceless alveolar stop\tt\t+\t-\t-\n" +
	"d\tvoiced alveolar stop\td\t+\t+\t-\n" +
	"a\topen vowel\ta\t-\t+\t-\n"

func stopsLoader(context.Context) (*feature.System, error) {
	return feature.ReadTable(feature.DefaultSystem, strings.NewReader(stops))
}

// Example_distance compares two phonemes with the default and an explicit method.
func Example_distance() {
	ctx := context.Background()
	e, err := phonodist.New(phonodist.WithFeatureLoader(stopsLoader))
	if err != nil {
		log.Fatal(err)
	}

	d, _, err := e.Distance(ctx, "p", "b")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("hamming: %.4f\n", d)

	d, _, err = e.Distance(ctx, "p", "d", func(o *phonodist.DistanceOptions) {
		o.Method = "euclidean"
		o.Normalize = false
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("euclidean: %.4f\n", d)
	// Output:
	// hamming: 0.3333
	// euclidean: 2.8284
}

// Example_matrix builds a distance matrix with the fluent builder.
func Example_matrix() {
	e, err := phonodist.New(phonodist.WithFeatureLoader(stopsLoader))
	if err != nil {
		log.Fatal(err)
	}

	m := e.Matrix("p", "b", "t").Method("manhattan").Normalize(false).MustBuild(context.Background())
	for i, row := range m.Rows() {
		fmt.Println(m.Label(i), row)
	}
	// Output:
	// p [0 2 2]
	// b [2 0 4]
	// t [2 4 0]
}

// Example_align aligns two words.
func Example_align() {
	e, err := phonodist.New(phonodist.WithFeatureLoader(stopsLoader))
	if err != nil {
		log.Fatal(err)
	}

	r, err := e.Align(context.Background(), []string{"p", "a", "t"}, []string{"b", "a"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(r)
	// Output:
	// Distance: 0.444
	// p a t
	// b a -
}

// Example_customMethod registers a distance function.
func Example_customMethod() {
	ctx := context.Background()
	e, err := phonodist.New(phonodist.WithFeatureLoader(stopsLoader))
	if err != nil {
		log.Fatal(err)
	}

	voicing := func(u, v feature.Vector) float64 {
		// voice is the second feature
		if u[1] == v[1] {
			return 0
		}
		return 1
	}
	if err := e.RegisterMethod(ctx, "voicing", voicing, distance.WithSelfNormalizing()); err != nil {
		log.Fatal(err)
	}

	for _, pair := range [][2]string{{"p", "b"}, {"p", "t"}} {
		d, _, err := e.Distance(ctx, pair[0], pair[1], func(o *phonodist.DistanceOptions) { o.Method = "voicing" })
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s/%s: %.0f\n", pair[0], pair[1], d)
	}
	// Output:
	// p/b: 1
	// p/t: 0
}

// Example_cognates derives a decision threshold from a cognate table.
func Example_cognates() {
	corpus, err := phonodist.LoadCognates(strings.NewReader(
		"concept,language,segments,cognacy\n"+
			"two,A,t a,1\n"+
			"two,B,d a,1\n"+
			"father,A,p a,2\n"+
			"father,B,b a,2\n",
	), align.LoadOptions{})
	if err != nil {
		log.Fatal(err)
	}

	e, err := phonodist.New(phonodist.WithFeatureLoader(stopsLoader))
	if err != nil {
		log.Fatal(err)
	}
	s, err := e.OptimizeFromCognates(context.Background(), corpus.Sequences())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("intra %.4f inter %.4f threshold %.4f\n", s.MeanIntra, s.MeanInter, s.Threshold)
	// Output: intra 0.1667 inter 0.1667 threshold 0.1667
}
