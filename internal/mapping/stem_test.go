package mapping_test

import (
	"fmt"

	"chain-mapper/internal/mapping"
)

func ExampleStem() {
	st := mapping.NewStem("rule")
	fmt.Println(st.Next(), st.Next(), st.Next())

	st = mapping.NewStem("rule")
	st.Reserve("rule2", "", "rule4")
	fmt.Println(st.Next(), st.Next(), st.Next())

	// Output:
	// rule1 rule2 rule3
	// rule1 rule3 rule5
}
