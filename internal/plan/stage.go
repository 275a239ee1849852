package plan

import (
	"fmt"
	"reflect"
)

// Stage is one step of an execute pipeline: a converter or a module.
type Stage interface {
	Name() string
	In() reflect.Type
	Out() reflect.Type
	Run(v reflect.Value) (reflect.Value, error)
}

// Chain checks that every stage accepts the output of the previous one,
// starting from in, and returns the type of the last output.
func Chain(in reflect.Type, stages []Stage) (reflect.Type, error) {
	cur := in
	for _, s := range stages {
		if !cur.AssignableTo(s.In()) {
			return nil, fmt.Errorf("stage %s takes %s but receives %s", s.Name(), s.In(), cur)
		}

		cur = s.Out()
	}

	return cur, nil
}

// RunPipeline passes v through the stages in order.
func RunPipeline(v reflect.Value, stages []Stage) (reflect.Value, error) {
	for _, s := range stages {
		out, err := s.Run(v)
		if err != nil {
			return reflect.Value{}, err
		}

		v = out
	}

	return v, nil
}
