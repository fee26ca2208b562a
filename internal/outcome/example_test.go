package outcome

import "fmt"

func ExampleEnumerate() {
	outcomes, err := Enumerate(3)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(outcomes)
	// Output:
	// [HHH HHT HTH HTT THH THT TTH TTT]
}

func ExampleCount() {
	n, _ := Count(3)
	fmt.Println(n)

	_, err := Count(-1)
	fmt.Println(err)
	// Output:
	// 8
	// validation error for "flips": must be non-negative, got -1
}
