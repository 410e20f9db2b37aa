package loadorder_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/stackreqs/pkg/component"
	"github.com/matzehuels/stackreqs/pkg/loadorder"
)

func Example() {
	reg := component.NewStatic(
		&component.Descriptor{ID: "light", Dependencies: []string{"zwave"}},
		&component.Descriptor{ID: "switch", Dependencies: []string{"zwave"}},
		&component.Descriptor{ID: "zwave", Requirements: []string{"pydispatcher==2.0.5", "pyzwave==0.3"}},
		&component.Descriptor{ID: "mqtt", Requirements: []string{"paho-mqtt==1.1"}},
	)

	res, err := loadorder.NewRunner(reg, nil).Run(context.Background(), []string{"switch", "light", "mqtt"})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("order:", res.Order)
	for _, req := range res.Requirements {
		fmt.Println(req)
	}
	// Output:
	// order: [zwave light mqtt switch]
	// pydispatcher==2.0.5
	// pyzwave==0.3
	// paho-mqtt==1.1
}

func ExampleResolve_cycle() {
	reg := component.NewStatic(
		&component.Descriptor{ID: "recorder", Dependencies: []string{"history"}},
		&component.Descriptor{ID: "history", Dependencies: []string{"recorder"}},
	)

	g, err := loadorder.Build(context.Background(), []string{"recorder"}, reg)
	if err != nil {
		fmt.Println(err)
		return
	}
	_, err = loadorder.Resolve(g)

	var cycErr *loadorder.CyclicDependencyError
	if errors.As(err, &cycErr) {
		fmt.Println(cycErr.Cycle)
	}
	fmt.Println(err)
	// Output:
	// [recorder history recorder]
	// cyclic dependency: recorder -> history -> recorder
}

func ExampleAggregate() {
	reg := component.NewStatic(
		&component.Descriptor{ID: "sensor", Requirements: []string{"pyserial==3.1"}},
		&component.Descriptor{ID: "climate", Requirements: []string{"pyserial==3.1", "pyecobee==0.2"}},
	)

	reqs, _ := loadorder.Aggregate(context.Background(), []string{"sensor", "climate"}, reg)
	fmt.Println(reqs)
	// Output:
	// [pyserial==3.1 pyserial==3.1 pyecobee==0.2]
}
