package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	rtos "github.com/intuitionamiga/ossim"
)

var taskStateColor = map[rtos.TaskState]color.RGBA{
	rtos.TaskSuspended: {R: 0x30, G: 0x30, B: 0x30, A: 0xff},
	rtos.TaskReady:     {R: 0x20, G: 0x60, B: 0xd0, A: 0xff},
	rtos.TaskRunning:   {R: 0x20, G: 0xb0, B: 0x40, A: 0xff},
	rtos.TaskWaiting:   {R: 0xd0, G: 0xa0, B: 0x20, A: 0xff},
}

const (
	cellW   = 64
	cellH   = 24
	labelW  = 56
)

// writeTaskTrace renders one cell per task, colored by current state, to a
// PNG at path — a post-scenario snapshot of the ready/running/waiting
// picture a live status line can only show one line of at a time.
func writeTaskTrace(path string, sys *rtos.System, numTasks int) error {
	img := image.NewRGBA(image.Rect(0, 0, labelW+cellW*numTasks, cellH*2))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{A: 0xff}), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	d.Dot = fixed.P(4, cellH/2+4)
	d.DrawString("tasks")

	for t := 0; t < numTasks; t++ {
		state, status := sys.GetTaskState(rtos.TaskID(t))
		c := taskStateColor[rtos.TaskSuspended]
		if status == rtos.StatusOK {
			c = taskStateColor[state]
		}
		x0 := labelW + t*cellW
		rect := image.Rect(x0, 0, x0+cellW-2, cellH)
		draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)

		d.Dst = img
		d.Src = image.NewUniform(color.White)
		d.Dot = fixed.P(x0+4, cellH/2+4)
		d.DrawString(fmt.Sprintf("T%d", t))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
