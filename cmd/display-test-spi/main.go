package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/BeatGlow/wallclock/display/conn"
)

func main() {
	busFlag := flag.Int("bus", 0, "SPI bus")
	deviceFlag := flag.Int("device", 0, "SPI device")
	speedFlag := flag.Int("speed", 0, "Request a maximum speed in Hz (default: leave as is)")
	bitsFlag := flag.Int("bits", 0, "Request a word size in bits (default: leave as is)")
	flag.Parse()

	c, err := conn.OpenSPI(*busFlag, *deviceFlag)
	if err != nil {
		log.Fatalln("open failed: ", err)
	}
	fmt.Println("connected using", c)
	fmt.Printf("mode %d, %d bits per word, max speed %d Hz\n", c.Mode(), c.BitsPerWord(), c.MaxSpeed())

	if *speedFlag > 0 {
		if err = c.SetMaxSpeed(*speedFlag); err != nil {
			log.Fatalln("set speed failed: ", err)
		}
		fmt.Printf("max speed now %d Hz\n", c.MaxSpeed())
	}
	if *bitsFlag > 0 {
		if err = c.SetBitsPerWord(uint8(min(*bitsFlag, 0xff))); err != nil {
			log.Fatalln("set bits per word failed: ", err)
		}
		fmt.Printf("%d bits per word now\n", c.BitsPerWord())
	}
	if err = c.Close(); err != nil {
		log.Fatalln("close failed: ", err)
	}
}
