package session

// ExampleArmyList is the Death Guard list the form offers as a sample.
const ExampleArmyList = `DG MORTAL WOUNDS (2000 Points)

Death Guard
Death Lord's Chosen
Strike Force (2,000 Points)

CHARACTERS

Mortarion (380 Points)
  • Warlord
  • 1x Lantern
  • 1x Rotwind
  • 1x Silence

Lord of Contagion (150 Points)
  • 1x Manreaper
  • Enhancements: Warprot Talisman

BATTLELINE

Plague Marines (95 Points)
  • 1x Plague Champion
     ◦ 1x Plasma gun
     ◦ 1x Power fist
  • 4x Plague Marine
     ◦ 1x Blight launcher
     ◦ 1x Boltgun
     ◦ 4x Plague knives
`
