package xsched_test

import (
	"context"
	"fmt"

	"github.com/omeyang/xposix/pkg/rtos/xsched"
)

func ExampleScheduler_SuspendAll() {
	sched := xsched.New()
	task, err := sched.NewTask("main")
	if err != nil {
		panic(err)
	}
	ctx := xsched.WithTask(context.Background(), task)

	sched.SuspendAll(ctx)
	sched.Critical(ctx, func(context.Context) {
		fmt.Println("nested:", sched.Suspended())
	})
	fmt.Println("after inner resume:", sched.Suspended())
	sched.ResumeAll(ctx)
	fmt.Println("after outer resume:", sched.Suspended())

	if err := sched.Exit(ctx, task); err != nil {
		panic(err)
	}
	// Output:
	// nested: true
	// after inner resume: true
	// after outer resume: false
}
